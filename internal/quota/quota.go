// Package quota enforces per-tenant plan ceilings: daily send counts
// and monthly resource-creation counts. Callers run check and
// increment inside one transaction so concurrent requests cannot slip
// past a ceiling together.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// ExceededError reports a rejected check with enough detail for an
// actionable 402 response.
type ExceededError struct {
	Scope string // "daily" or "monthly"
	Field string
	Limit int
	Used  int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded for %s: %d of %d used", e.Scope, e.Field, e.Used, e.Limit)
}

// InactiveError reports a tenant whose subscription no longer permits
// billable actions.
type InactiveError struct {
	Status string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("subscription %s", e.Status)
}

type Service struct {
	plans *repository.PlanRepository
	usage *repository.UsageRepository
	now   func() time.Time
}

func NewService(plans *repository.PlanRepository, usage *repository.UsageRepository) *Service {
	return &Service{
		plans: plans,
		usage: usage,
		now:   time.Now,
	}
}

// WithClock overrides the service clock. Used by tests to pin day and
// month boundaries.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) dayKey() string   { return s.now().UTC().Format(dayLayout) }
func (s *Service) monthKey() string { return s.now().UTC().Format(monthLayout) }

func (s *Service) activeLimits(ctx context.Context, tenantID int64) (model.PlanLimits, error) {
	plan, err := s.plans.Get(ctx, tenantID, s.now().UTC())
	if err != nil {
		return model.PlanLimits{}, err
	}
	if plan.Status == model.PlanStatusCanceled {
		return model.PlanLimits{}, &InactiveError{Status: plan.Status}
	}
	return model.LimitsForPlan(plan.Plan), nil
}

// CheckDailySend rejects when today's total send counter has reached
// the plan's daily ceiling.
func (s *Service) CheckDailySend(ctx context.Context, tenantID int64) error {
	limits, err := s.activeLimits(ctx, tenantID)
	if err != nil {
		return err
	}
	if limits.SendsDailyTotal == nil {
		return nil
	}
	usage, err := s.usage.GetDaily(ctx, tenantID, s.dayKey(), s.now().UTC())
	if err != nil {
		return err
	}
	if usage.SendsTotal >= *limits.SendsDailyTotal {
		return &ExceededError{
			Scope: "daily",
			Field: "sends_total",
			Limit: *limits.SendsDailyTotal,
			Used:  usage.SendsTotal,
		}
	}
	return nil
}

// IncrementDailySend records one accepted send against today's
// counters for the given channel.
func (s *Service) IncrementDailySend(ctx context.Context, tenantID int64, channel string) error {
	return s.usage.IncrementDaily(ctx, tenantID, s.dayKey(), channel, 1, s.now().UTC())
}

// CheckMonthlyResource rejects when this month's counter for field has
// reached the plan's ceiling.
func (s *Service) CheckMonthlyResource(ctx context.Context, tenantID int64, field model.UsageField) error {
	limits, err := s.activeLimits(ctx, tenantID)
	if err != nil {
		return err
	}
	ceiling, ok := limits.ForField(field)
	if !ok {
		return fmt.Errorf("unknown usage field: %s", field)
	}
	if ceiling == nil {
		return nil
	}
	usage, err := s.usage.GetMonthly(ctx, tenantID, s.monthKey(), s.now().UTC())
	if err != nil {
		return err
	}
	used := usedForField(usage, field)
	if used >= *ceiling {
		return &ExceededError{
			Scope: "monthly",
			Field: string(field),
			Limit: *ceiling,
			Used:  used,
		}
	}
	return nil
}

// IncrementMonthlyResource records one created resource against this
// month's counter for field.
func (s *Service) IncrementMonthlyResource(ctx context.Context, tenantID int64, field model.UsageField) error {
	return s.usage.IncrementMonthly(ctx, tenantID, s.monthKey(), field, 1, s.now().UTC())
}

// Snapshot bundles the tenant's plan, its ceilings and the current
// day and month counters.
func (s *Service) Snapshot(ctx context.Context, tenantID int64) (*model.PlanSnapshot, error) {
	now := s.now().UTC()
	plan, err := s.plans.Get(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	daily, err := s.usage.GetDaily(ctx, tenantID, s.dayKey(), now)
	if err != nil {
		return nil, err
	}
	monthly, err := s.usage.GetMonthly(ctx, tenantID, s.monthKey(), now)
	if err != nil {
		return nil, err
	}
	return &model.PlanSnapshot{
		TenantID: tenantID,
		Plan:     plan.Plan,
		Status:   plan.Status,
		Limits:   model.LimitsForPlan(plan.Plan),
		Daily:    *daily,
		Monthly:  *monthly,
	}, nil
}

func usedForField(u *model.MonthlyUsage, field model.UsageField) int {
	switch field {
	case model.UsageAdsCreated:
		return u.AdsCreated
	case model.UsageTemplatesCreated:
		return u.TemplatesCreated
	case model.UsageLinksCreated:
		return u.LinksCreated
	case model.UsageInvitesCreated:
		return u.InvitesCreated
	}
	return 0
}
