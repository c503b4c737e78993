package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type AdService interface {
	Create(ctx context.Context, req model.AdCreateRequest) (*model.Ad, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Ad, error)
	List(ctx context.Context, tenantID int64, f model.AdFilter) ([]*model.Ad, int64, error)
	Patch(ctx context.Context, tenantID, id int64, p model.AdPatch) (*model.Ad, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Schedule(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.Ad, error)
	DeliveryNotes(ctx context.Context, tenantID, adID int64) ([]*model.AdDeliveryNote, error)
}

type AdHandler struct {
	svc AdService
}

func NewAdHandler(svc AdService) *AdHandler {
	return &AdHandler{
		svc: svc,
	}
}

func RegisterAdRoutes(e *router.Group, h *AdHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/ads", tenant(h.CreateAd))
	e.GET("/ads", tenant(h.ListAds))
	e.GET("/ads/{id}", tenant(h.GetAd))
	e.PATCH("/ads/{id}", tenant(h.PatchAd))
	e.DELETE("/ads/{id}", tenant(h.DeleteAd))
	e.POST("/ads/{id}/schedule", tenant(h.ScheduleAd))
	e.GET("/ads/{id}/deliveries", tenant(h.ListAdDeliveries))
}

type createAdRequest struct {
	CampaignID *int64 `json:"campaign_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Channel    string `json:"channel"`
}

// patchAdRequest distinguishes absent fields from explicit nulls via
// raw message presence.
type patchAdRequest struct {
	Title      *string         `json:"title"`
	Body       *string         `json:"body"`
	Channel    *string         `json:"channel"`
	CampaignID json.RawMessage `json:"campaign_id"`
}

type adListResponse struct {
	Items []*model.Ad `json:"items"`
	Total int64       `json:"total"`
}

func (h *AdHandler) CreateAd(ctx *xhttp.RequestCtx) {
	var req createAdRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	ad, err := h.svc.Create(ctx, model.AdCreateRequest{
		TenantID:   tenantID(ctx),
		CampaignID: req.CampaignID,
		Title:      req.Title,
		Body:       req.Body,
		Channel:    req.Channel,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, ad)
}

func (h *AdHandler) GetAd(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	ad, err := h.svc.Get(ctx, tenantID(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, ad)
}

func (h *AdHandler) ListAds(ctx *xhttp.RequestCtx) {
	var f model.AdFilter
	if v := query(ctx, "status"); v != "" {
		status := model.AdStatus(v)
		f.Status = &status
	}
	f.Limit = queryInt(ctx, "limit")
	f.Offset = queryInt(ctx, "offset")

	items, total, err := h.svc.List(ctx, tenantID(ctx), f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, adListResponse{Items: items, Total: total})
}

func (h *AdHandler) PatchAd(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req patchAdRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	patch := model.AdPatch{
		Title:   req.Title,
		Body:    req.Body,
		Channel: req.Channel,
	}
	if len(req.CampaignID) > 0 {
		var cid *int64
		if err := json.Unmarshal(req.CampaignID, &cid); err != nil {
			writeError(ctx, 400, "invalid campaign_id")
			return
		}
		patch.CampaignID = &cid
	}

	ad, err := h.svc.Patch(ctx, tenantID(ctx), id, patch)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, ad)
}

func (h *AdHandler) DeleteAd(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.svc.Delete(ctx, tenantID(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

type scheduleAdRequest struct {
	ScheduledAt string `json:"scheduled_at"`
}

func (h *AdHandler) ScheduleAd(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req scheduleAdRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	at, err := parseTime(req.ScheduledAt)
	if err != nil {
		writeError(ctx, 400, "invalid scheduled_at: "+err.Error())
		return
	}

	ad, err := h.svc.Schedule(ctx, tenantID(ctx), id, at)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, ad)
}

func (h *AdHandler) ListAdDeliveries(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	notes, err := h.svc.DeliveryNotes(ctx, tenantID(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": notes})
}
