package fixtures

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

var (
	TenantFree       int64 = 1
	TenantPro        int64 = 2
	TenantEnterprise int64 = 3
	TenantCanceled   int64 = 4
)

var TenantPlans = []model.TenantPlan{
	{TenantID: TenantFree, Plan: model.PlanFree, Status: model.PlanStatusActive},
	{TenantID: TenantPro, Plan: model.PlanPro, Status: model.PlanStatusActive},
	{TenantID: TenantEnterprise, Plan: model.PlanEnterprise, Status: model.PlanStatusActive},
	{TenantID: TenantCanceled, Plan: model.PlanPro, Status: model.PlanStatusCanceled},
}

func NewEnqueueRequest(tenantID int64, channel, toAddr, key string) model.DeliveryEnqueueRequest {
	return model.DeliveryEnqueueRequest{
		TenantID:       tenantID,
		Channel:        channel,
		ToAddr:         toAddr,
		IdempotencyKey: key,
		Payload:        map[string]any{"body": "fixture body"},
	}
}

func NewCampaign(tenantID int64, name string) *model.Campaign {
	now := time.Now().UTC()
	return &model.Campaign{
		TenantID:  tenantID,
		Name:      name,
		Objective: "awareness",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewContact(tenantID int64, name, email, phone string) *model.Contact {
	now := time.Now().UTC()
	return &model.Contact{
		TenantID:  tenantID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewAdCreateRequest(tenantID int64, title, channel string) model.AdCreateRequest {
	return model.AdCreateRequest{
		TenantID: tenantID,
		Title:    title,
		Body:     "fixture creative",
		Channel:  channel,
	}
}

var ValidAddresses = []string{
	"ada@example.com",
	"brian@example.com",
	"+15550100001",
	"+15550100002",
	"@carol_handle",
}

// FailingAddresses always bounce in the deterministic send simulation.
var FailingAddresses = []string{
	"fail@example.com",
	"always-FAIL@example.com",
	"+1555fail0001",
}
