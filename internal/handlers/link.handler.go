package handlers

import (
	"context"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type ShortLinkService interface {
	Create(ctx context.Context, req model.ShortLinkCreateRequest) (*model.ShortLink, error)
	List(ctx context.Context, tenantID int64) ([]*model.ShortLink, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Resolve(ctx context.Context, slug string) (*model.ShortLink, error)
}

type ShortLinkHandler struct {
	svc ShortLinkService
}

func NewShortLinkHandler(svc ShortLinkService) *ShortLinkHandler {
	return &ShortLinkHandler{
		svc: svc,
	}
}

func RegisterShortLinkRoutes(e *router.Group, h *ShortLinkHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/links", tenant(h.CreateLink))
	e.GET("/links", tenant(h.ListLinks))
	e.DELETE("/links/{id}", tenant(h.DeleteLink))
}

// RegisterRedirectRoute mounts the public redirect outside the
// tenant-scoped API group.
func RegisterRedirectRoute(r *xhttp.Router, h *ShortLinkHandler) {
	r.GET("/r/{slug}", h.Redirect)
}

type createLinkRequest struct {
	AdID      *int64 `json:"ad_id"`
	TargetURL string `json:"target_url"`
	Slug      string `json:"slug"`
}

func (h *ShortLinkHandler) CreateLink(ctx *xhttp.RequestCtx) {
	var req createLinkRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	link, err := h.svc.Create(ctx, model.ShortLinkCreateRequest{
		TenantID:  tenantID(ctx),
		AdID:      req.AdID,
		TargetURL: req.TargetURL,
		Slug:      req.Slug,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, link)
}

func (h *ShortLinkHandler) ListLinks(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx, tenantID(ctx))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": items})
}

func (h *ShortLinkHandler) DeleteLink(ctx *xhttp.RequestCtx) {
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

func (h *ShortLinkHandler) Redirect(ctx *xhttp.RequestCtx) {
	slug, _ := ctx.UserValue("slug").(string)
	link, err := h.svc.Resolve(ctx, slug)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.Redirect(link.TargetURL, 302)
}
