package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type DeliveryService interface {
	Enqueue(ctx context.Context, req model.DeliveryEnqueueRequest) (*model.Delivery, bool, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Delivery, error)
	List(ctx context.Context, tenantID int64, f model.DeliveryFilter) ([]*model.Delivery, int64, error)
	SLA(ctx context.Context, tenantID int64, days int) (*model.SLAReport, error)
}

type DeliveryHandler struct {
	svc DeliveryService
}

func NewDeliveryHandler(svc DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		svc: svc,
	}
}

func RegisterDeliveryRoutes(e *router.Group, h *DeliveryHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/deliveries", tenant(h.EnqueueDelivery))
	e.GET("/deliveries", tenant(h.ListDeliveries))
	e.GET("/deliveries/{id}", tenant(h.GetDelivery))
	e.GET("/dashboard/sla", tenant(h.GetSLA))
}

type enqueueDeliveryRequest struct {
	CampaignID     *int64         `json:"campaign_id"`
	Channel        string         `json:"channel"`
	ToAddr         string         `json:"to_addr"`
	Payload        map[string]any `json:"payload"`
	IdempotencyKey string         `json:"idempotency_key"`
	MaxAttempts    int            `json:"max_attempts"`
	ScheduledAt    *string        `json:"scheduled_at"`
}

type deliveryListResponse struct {
	Items []*model.Delivery `json:"items"`
	Total int64             `json:"total"`
}

func (h *DeliveryHandler) EnqueueDelivery(ctx *xhttp.RequestCtx) {
	var req enqueueDeliveryRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	var scheduledAt *time.Time
	if req.ScheduledAt != nil && *req.ScheduledAt != "" {
		t, err := parseTime(*req.ScheduledAt)
		if err != nil {
			writeError(ctx, 400, "invalid scheduled_at: "+err.Error())
			return
		}
		scheduledAt = &t
	}

	d, _, err := h.svc.Enqueue(ctx, model.DeliveryEnqueueRequest{
		TenantID:       tenantID(ctx),
		CampaignID:     req.CampaignID,
		Channel:        req.Channel,
		ToAddr:         req.ToAddr,
		Payload:        req.Payload,
		IdempotencyKey: req.IdempotencyKey,
		MaxAttempts:    req.MaxAttempts,
		ScheduledAt:    scheduledAt,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	// A replayed idempotency key answers exactly like the first call,
	// returning the stored row.
	writeJSON(ctx, 201, d)
}

func (h *DeliveryHandler) GetDelivery(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	d, err := h.svc.Get(ctx, tenantID(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, d)
}

func (h *DeliveryHandler) ListDeliveries(ctx *xhttp.RequestCtx) {
	var f model.DeliveryFilter
	if v := query(ctx, "status"); v != "" {
		status := model.DeliveryStatus(v)
		f.Status = &status
	}
	if v := query(ctx, "campaign_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.CampaignID = &id
		}
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")

	items, total, err := h.svc.List(ctx, tenantID(ctx), f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, deliveryListResponse{Items: items, Total: total})
}

func (h *DeliveryHandler) GetSLA(ctx *xhttp.RequestCtx) {
	days := queryInt(ctx, "days")
	report, err := h.svc.SLA(ctx, tenantID(ctx), days)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}
