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

type ContactRepository interface {
	Create(ctx context.Context, c *model.Contact) (*model.Contact, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Contact, error)
	List(ctx context.Context, tenantID int64, f model.ContactFilter) ([]*model.Contact, int64, error)
	Patch(ctx context.Context, tenantID, id int64, p model.ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type ContactHandler struct {
	repo ContactRepository
}

func NewContactHandler(repo ContactRepository) *ContactHandler {
	return &ContactHandler{
		repo: repo,
	}
}

func RegisterContactRoutes(e *router.Group, h *ContactHandler, tenant xhttp.MiddlewareFunc) {
	e.POST("/contacts", tenant(h.CreateContact))
	e.GET("/contacts", tenant(h.ListContacts))
	e.GET("/contacts/{id}", tenant(h.GetContact))
	e.PATCH("/contacts/{id}", tenant(h.PatchContact))
	e.DELETE("/contacts/{id}", tenant(h.DeleteContact))
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type contactListResponse struct {
	Items []*model.Contact `json:"items"`
	Total int64            `json:"total"`
}

func (h *ContactHandler) CreateContact(ctx *xhttp.RequestCtx) {
	var req contactRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	p := model.ContactCreateRequest{
		TenantID: tenantID(ctx),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := p.Validate(); err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	now := time.Now().UTC()
	c, err := h.repo.Create(ctx, &model.Contact{
		TenantID:  p.TenantID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, c)
}

func (h *ContactHandler) GetContact(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	c, err := h.repo.Get(ctx, tenantID(ctx), id)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, c)
}

func (h *ContactHandler) ListContacts(ctx *xhttp.RequestCtx) {
	f := model.ContactFilter{
		Query:  query(ctx, "q"),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	items, total, err := h.repo.List(ctx, tenantID(ctx), f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, contactListResponse{Items: items, Total: total})
}

type patchContactRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (h *ContactHandler) PatchContact(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	var req patchContactRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.repo.Patch(ctx, tenantID(ctx), id, model.ContactPatch{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, c)
}

func (h *ContactHandler) DeleteContact(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid id")
		return
	}
	if err := h.repo.Delete(ctx, tenantID(ctx), id); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			writeError(ctx, 404, "not found")
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}
