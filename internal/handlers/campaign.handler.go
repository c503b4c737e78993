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

type CampaignRepository interface {
	Create(ctx context.Context, c *model.Campaign) (*model.Campaign, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Campaign, error)
	List(ctx context.Context, tenantID int64) ([]*model.Campaign, error)
	Patch(ctx context.Context, tenantID, id int64, p model.CampaignPatch) (*model.Campaign, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type CampaignHandler struct {
	repo CampaignRepository
}

func NewCampaignHandler(repo CampaignRepository) *CampaignHandler {
	return &CampaignHandler{
		repo: repo,
	}
}

func RegisterCampaignRoutes(e *router.Group, h *CampaignHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/campaigns", tenant(h.CreateCampaign))
	e.GET("/campaigns", tenant(h.ListCampaigns))
	e.GET("/campaigns/{id}", tenant(h.GetCampaign))
	e.PATCH("/campaigns/{id}", tenant(h.PatchCampaign))
	e.DELETE("/campaigns/{id}", tenant(h.DeleteCampaign))
}

type campaignRequest struct {
	Name      string `json:"name"`
	Objective string `json:"objective"`
}

func (h *CampaignHandler) CreateCampaign(ctx *xhttp.RequestCtx) {
	var req campaignRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.CampaignCreateRequest{
		TenantID:  tenantID(ctx),
		Name:      req.Name,
		Objective: req.Objective,
	}
	if err := p.Validate(); err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	now := time.Now().UTC()
	c, err := h.repo.Create(ctx, &model.Campaign{
		TenantID:  p.TenantID,
		Name:      p.Name,
		Objective: p.Objective,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, c)
}

func (h *CampaignHandler) GetCampaign(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	c, err := h.repo.Get(ctx, tenantID(ctx), id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, c)
}

func (h *CampaignHandler) ListCampaigns(ctx *xhttp.RequestCtx) {
	items, err := h.repo.List(ctx, tenantID(ctx))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": items})
}

type patchCampaignRequest struct {
	Name      *string `json:"name"`
	Objective *string `json:"objective"`
}

func (h *CampaignHandler) PatchCampaign(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req patchCampaignRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.repo.Patch(ctx, tenantID(ctx), id, model.CampaignPatch{
		Name:      req.Name,
		Objective: req.Objective,
	})
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, c)
}

func (h *CampaignHandler) DeleteCampaign(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.repo.Delete(ctx, tenantID(ctx), id); err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}
