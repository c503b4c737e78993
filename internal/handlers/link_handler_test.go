package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockShortLinkService struct {
	mock.Mock
}

func (m *MockShortLinkService) Create(ctx context.Context, req model.ShortLinkCreateRequest) (*model.ShortLink, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShortLink), args.Error(1)
}

func (m *MockShortLinkService) List(ctx context.Context, tenantID int64) ([]*model.ShortLink, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ShortLink), args.Error(1)
}

func (m *MockShortLinkService) Delete(ctx context.Context, tenantID, id int64) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockShortLinkService) Resolve(ctx context.Context, slug string) (*model.ShortLink, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShortLink), args.Error(1)
}

func TestShortLinkHandler_CreateLink(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockShortLinkService)
		handler := NewShortLinkHandler(svc)

		bodyBytes, _ := json.Marshal(map[string]any{
			"target_url": "https://example.com/promo",
			"slug":       "promo",
		})

		svc.On("Create", mock.Anything, mock.MatchedBy(func(r model.ShortLinkCreateRequest) bool {
			return r.TenantID == 1 && r.Slug == "promo"
		})).Return(&model.ShortLink{ID: 3, Slug: "promo", TargetURL: "https://example.com/promo"}, nil)

		ctx := tenantTestContext("POST", "/links", 1, bodyBytes)
		handler.CreateLink(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("taken slug", func(t *testing.T) {
		svc := new(MockShortLinkService)
		handler := NewShortLinkHandler(svc)

		bodyBytes, _ := json.Marshal(map[string]any{
			"target_url": "https://example.com",
			"slug":       "promo",
		})

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrSlugTaken)

		ctx := tenantTestContext("POST", "/links", 1, bodyBytes)
		handler.CreateLink(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())

		var body map[string]string
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
		assert.Contains(t, body["error"], "slug")

		svc.AssertExpectations(t)
	})
}

func TestShortLinkHandler_Redirect(t *testing.T) {
	t.Run("known slug redirects", func(t *testing.T) {
		svc := new(MockShortLinkService)
		handler := NewShortLinkHandler(svc)

		svc.On("Resolve", mock.Anything, "promo").
			Return(&model.ShortLink{Slug: "promo", TargetURL: "https://example.com/promo"}, nil)

		ctx := setupTestContext("GET", "/r/promo", nil)
		ctx.SetUserValue("slug", "promo")
		handler.Redirect(ctx)

		assert.Equal(t, 302, ctx.Response.StatusCode())
		assert.Equal(t, "https://example.com/promo", string(ctx.Response.Header.Peek("Location")))

		svc.AssertExpectations(t)
	})

	t.Run("unknown slug is 404", func(t *testing.T) {
		svc := new(MockShortLinkService)
		handler := NewShortLinkHandler(svc)

		svc.On("Resolve", mock.Anything, "nope").Return(nil, services.ErrNotFound)

		ctx := setupTestContext("GET", "/r/nope", nil)
		ctx.SetUserValue("slug", "nope")
		handler.Redirect(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}
