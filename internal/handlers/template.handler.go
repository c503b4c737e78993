package handlers

import (
	"context"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type TemplateService interface {
	Create(ctx context.Context, req model.TemplateCreateRequest) (*model.Template, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Template, error)
	List(ctx context.Context, tenantID int64) ([]*model.Template, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Preview(ctx context.Context, tenantID, id int64, vars map[string]string) (string, error)
}

type TemplateHandler struct {
	svc TemplateService
}

func NewTemplateHandler(svc TemplateService) *TemplateHandler {
	return &TemplateHandler{
		svc: svc,
	}
}

func RegisterTemplateRoutes(e *router.Group, h *TemplateHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/templates", tenant(h.CreateTemplate))
	e.GET("/templates", tenant(h.ListTemplates))
	e.GET("/templates/{id}", tenant(h.GetTemplate))
	e.DELETE("/templates/{id}", tenant(h.DeleteTemplate))
	e.POST("/templates/{id}/preview", tenant(h.PreviewTemplate))
}

type templateRequest struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
	Body    string `json:"body"`
}

func (h *TemplateHandler) CreateTemplate(ctx *xhttp.RequestCtx) {
	var req templateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	tpl, err := h.svc.Create(ctx, model.TemplateCreateRequest{
		TenantID: tenantID(ctx),
		Name:     req.Name,
		Channel:  req.Channel,
		Body:     req.Body,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, tpl)
}

func (h *TemplateHandler) GetTemplate(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	tpl, err := h.svc.Get(ctx, tenantID(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, tpl)
}

func (h *TemplateHandler) ListTemplates(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx, tenantID(ctx))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, map[string]any{"items": items})
}

func (h *TemplateHandler) DeleteTemplate(ctx *xhttp.RequestCtx) {
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

type previewRequest struct {
	Variables map[string]string `json:"variables"`
}

func (h *TemplateHandler) PreviewTemplate(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req previewRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	rendered, err := h.svc.Preview(ctx, tenantID(ctx), id, req.Variables)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]string{"rendered": rendered})
}
