package model

// Plan names. Tenants without an explicit plan row default to free/active.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanBusiness   = "business"
	PlanEnterprise = "enterprise"
)

// Subscription statuses mirrored from the billing provider.
const (
	PlanStatusActive   = "active"
	PlanStatusTrialing = "trialing"
	PlanStatusPastDue  = "past_due"
	PlanStatusCanceled = "canceled"
)

// UsageField names the monthly resource-creation counters.
type UsageField string

const (
	UsageAdsCreated       UsageField = "ads_created"
	UsageTemplatesCreated UsageField = "templates_created"
	UsageLinksCreated     UsageField = "links_created"
	UsageInvitesCreated   UsageField = "invites_created"
)

// PlanLimits holds the ceilings for one plan tier. A nil value means
// unlimited.
type PlanLimits struct {
	AdsCreatedMonthly       *int `json:"ads_created_monthly"`
	TemplatesCreatedMonthly *int `json:"templates_created_monthly"`
	LinksCreatedMonthly     *int `json:"links_created_monthly"`
	InvitesCreatedMonthly   *int `json:"invites_created_monthly"`
	SendsDailyTotal         *int `json:"sends_daily_total"`
}

// ForField returns the ceiling for a monthly usage field.
func (l PlanLimits) ForField(field UsageField) (*int, bool) {
	switch field {
	case UsageAdsCreated:
		return l.AdsCreatedMonthly, true
	case UsageTemplatesCreated:
		return l.TemplatesCreatedMonthly, true
	case UsageLinksCreated:
		return l.LinksCreatedMonthly, true
	case UsageInvitesCreated:
		return l.InvitesCreatedMonthly, true
	}
	return nil, false
}

func limit(n int) *int { return &n }

var limitsByPlan = map[string]PlanLimits{
	PlanFree: {
		AdsCreatedMonthly:       limit(50),
		TemplatesCreatedMonthly: limit(20),
		LinksCreatedMonthly:     limit(200),
		InvitesCreatedMonthly:   limit(20),
		SendsDailyTotal:         limit(200),
	},
	PlanPro: {
		AdsCreatedMonthly:       limit(300),
		TemplatesCreatedMonthly: limit(200),
		LinksCreatedMonthly:     limit(2000),
		InvitesCreatedMonthly:   limit(200),
		SendsDailyTotal:         limit(2000),
	},
	PlanBusiness: {
		AdsCreatedMonthly:       limit(2000),
		TemplatesCreatedMonthly: limit(1000),
		LinksCreatedMonthly:     limit(20000),
		InvitesCreatedMonthly:   limit(2000),
		SendsDailyTotal:         limit(20000),
	},
	PlanEnterprise: {},
}

// LimitsForPlan resolves the ceilings for a plan name, falling back to
// the free tier for unknown plans.
func LimitsForPlan(plan string) PlanLimits {
	if l, ok := limitsByPlan[plan]; ok {
		return l
	}
	return limitsByPlan[PlanFree]
}

// TenantPlan is the per-tenant subscription row.
type TenantPlan struct {
	TenantID int64  `json:"tenant_id"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

// DailyUsage is the per-tenant, per-UTC-day send counter row.
type DailyUsage struct {
	TenantID      int64  `json:"tenant_id"`
	Day           string `json:"day"` // YYYY-MM-DD
	SendsTotal    int    `json:"sends_total"`
	SendsWhatsapp int    `json:"sends_whatsapp"`
	SendsX        int    `json:"sends_x"`
	SendsEmail    int    `json:"sends_email"`
}

// MonthlyUsage is the per-tenant, per-UTC-month resource counter row.
type MonthlyUsage struct {
	TenantID         int64  `json:"tenant_id"`
	Month            string `json:"month"` // YYYY-MM
	AdsCreated       int    `json:"ads_created"`
	TemplatesCreated int    `json:"templates_created"`
	LinksCreated     int    `json:"links_created"`
	InvitesCreated   int    `json:"invites_created"`
}

// PlanSnapshot bundles the plan, its limits and the current usage for
// the saas plan endpoint.
type PlanSnapshot struct {
	TenantID int64        `json:"tenant_id"`
	Plan     string       `json:"plan"`
	Status   string       `json:"status"`
	Limits   PlanLimits   `json:"limits"`
	Daily    DailyUsage   `json:"daily"`
	Monthly  MonthlyUsage `json:"monthly"`
}
