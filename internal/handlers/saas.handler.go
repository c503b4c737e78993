package handlers

import (
	"context"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type QuotaService interface {
	Snapshot(ctx context.Context, tenantID int64) (*model.PlanSnapshot, error)
}

type PlanStore interface {
	Set(ctx context.Context, tenantID int64, plan, status string, now time.Time) error
}

type SaasHandler struct {
	quota QuotaService
	plans PlanStore
}

func NewSaasHandler(quota QuotaService, plans PlanStore) *SaasHandler {
	return &SaasHandler{
		quota: quota,
		plans: plans,
	}
}

// RegisterSaasRoutes mounts the tenant-facing plan snapshot and the
// admin-only plan override used by the billing webhook bridge.
func RegisterSaasRoutes(e *router.Group, h *SaasHandler, tenant xhttp.MiddlewareFunc, adminKey string) {
	e.GET("/saas/plan", tenant(h.GetPlan))
	e.PUT("/saas/plan", AdminKeyGuard(adminKey, h.SetPlan))
}

func (h *SaasHandler) GetPlan(ctx *xhttp.RequestCtx) {
	snap, err := h.quota.Snapshot(ctx, tenantID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

type setPlanRequest struct {
	TenantID int64  `json:"tenant_id"`
	Plan     string `json:"plan"`
	Status   string `json:"status"`
}

var validPlans = map[string]bool{
	model.PlanFree:       true,
	model.PlanPro:        true,
	model.PlanBusiness:   true,
	model.PlanEnterprise: true,
}

var validStatuses = map[string]bool{
	model.PlanStatusActive:   true,
	model.PlanStatusTrialing: true,
	model.PlanStatusPastDue:  true,
	model.PlanStatusCanceled: true,
}

func (h *SaasHandler) SetPlan(ctx *xhttp.RequestCtx) {
	var req setPlanRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.TenantID <= 0 {
		writeError(ctx, 400, "tenant_id is required")
		return
	}
	if !validPlans[req.Plan] {
		writeError(ctx, 400, "unknown plan: "+req.Plan)
		return
	}
	if req.Status == "" {
		req.Status = model.PlanStatusActive
	}
	if !validStatuses[req.Status] {
		writeError(ctx, 400, "unknown status: "+req.Status)
		return
	}
	if err := h.plans.Set(ctx, req.TenantID, req.Plan, req.Status, time.Now().UTC()); err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]any{
		"tenant_id": req.TenantID,
		"plan":      req.Plan,
		"status":    req.Status,
	})
}
