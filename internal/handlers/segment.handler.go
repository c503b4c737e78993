package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type SegmentRepository interface {
	Create(ctx context.Context, s *model.Segment) (*model.Segment, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Segment, error)
	List(ctx context.Context, tenantID int64) ([]*model.Segment, error)
	Patch(ctx context.Context, tenantID, id int64, p model.SegmentPatch) (*model.Segment, error)
	Delete(ctx context.Context, tenantID, id int64) error
	AddMember(ctx context.Context, tenantID, segmentID, contactID int64) error
	RemoveMember(ctx context.Context, tenantID, segmentID, contactID int64) error
	Members(ctx context.Context, tenantID, segmentID int64) ([]*model.Contact, error)
}

type AutomationService interface {
	BroadcastSegment(ctx context.Context, req model.SegmentBroadcastRequest) (*model.SegmentBroadcastResult, error)
}

type SegmentHandler struct {
	repo       SegmentRepository
	automation AutomationService
}

func NewSegmentHandler(repo SegmentRepository, automation AutomationService) *SegmentHandler {
	return &SegmentHandler{
		repo:       repo,
		automation: automation,
	}
}

func RegisterSegmentRoutes(e *router.Group, h *SegmentHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/segments", tenant(h.CreateSegment))
	e.GET("/segments", tenant(h.ListSegments))
	e.GET("/segments/{id}", tenant(h.GetSegment))
	e.PATCH("/segments/{id}", tenant(h.PatchSegment))
	e.DELETE("/segments/{id}", tenant(h.DeleteSegment))
	e.GET("/segments/{id}/members", tenant(h.ListMembers))
	e.POST("/segments/{id}/members/{contact_id}", tenant(h.AddMember))
	e.DELETE("/segments/{id}/members/{contact_id}", tenant(h.RemoveMember))
	e.POST("/automation/segment-send", tenant(h.BroadcastSegment))
}

type segmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *SegmentHandler) CreateSegment(ctx *xhttp.RequestCtx) {
	var req segmentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.SegmentCreateRequest{
		TenantID:    tenantID(ctx),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := p.Validate(); err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	now := time.Now().UTC()
	s, err := h.repo.Create(ctx, &model.Segment{
		TenantID:    p.TenantID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, s)
}

func (h *SegmentHandler) GetSegment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	s, err := h.repo.Get(ctx, tenantID(ctx), id)
	if err != nil {
		writeSegmentError(ctx, err)
		return
	}
	writeJSON(ctx, 200, s)
}

func (h *SegmentHandler) ListSegments(ctx *xhttp.RequestCtx) {
	items, err := h.repo.List(ctx, tenantID(ctx))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": items})
}

type patchSegmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *SegmentHandler) PatchSegment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req patchSegmentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	s, err := h.repo.Patch(ctx, tenantID(ctx), id, model.SegmentPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeSegmentError(ctx, err)
		return
	}
	writeJSON(ctx, 200, s)
}

func (h *SegmentHandler) DeleteSegment(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.repo.Delete(ctx, tenantID(ctx), id); err != nil {
		writeSegmentError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *SegmentHandler) ListMembers(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	members, err := h.repo.Members(ctx, tenantID(ctx), id)
	if err != nil {
		writeSegmentError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": members})
}

func (h *SegmentHandler) AddMember(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	contactID, err := pathInt64(ctx, "contact_id")
	if err != nil {
		writeError(ctx, 400, "invalid contact_id")
		return
	}
	if err := h.repo.AddMember(ctx, tenantID(ctx), id, contactID); err != nil {
		writeSegmentError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *SegmentHandler) RemoveMember(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	contactID, err := pathInt64(ctx, "contact_id")
	if err != nil {
		writeError(ctx, 400, "invalid contact_id")
		return
	}
	if err := h.repo.RemoveMember(ctx, tenantID(ctx), id, contactID); err != nil {
		writeSegmentError(ctx, err)
		return
	}
	ctx.Response.SetStatusCode(204)
}

type broadcastRequest struct {
	SegmentID  int64             `json:"segment_id"`
	CampaignID *int64            `json:"campaign_id"`
	TemplateID *int64            `json:"template_id"`
	Channel    string            `json:"channel"`
	Body       string            `json:"body"`
	Variables  map[string]string `json:"variables"`
}

func (h *SegmentHandler) BroadcastSegment(ctx *xhttp.RequestCtx) {
	var req broadcastRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	result, err := h.automation.BroadcastSegment(ctx, model.SegmentBroadcastRequest{
		TenantID:   tenantID(ctx),
		SegmentID:  req.SegmentID,
		CampaignID: req.CampaignID,
		TemplateID: req.TemplateID,
		Channel:    req.Channel,
		Body:       req.Body,
		Variables:  req.Variables,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

func writeSegmentError(ctx *xhttp.RequestCtx, err error) {
	if errors.Is(err, repository.ErrSegmentNotFound) || errors.Is(err, repository.ErrContactNotFound) {
		writeError(ctx, 404, "not found")
		return
	}
	writeError(ctx, 400, err.Error())
}
