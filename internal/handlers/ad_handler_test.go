package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAdService struct {
	mock.Mock
}

func (m *MockAdService) Create(ctx context.Context, req model.AdCreateRequest) (*model.Ad, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdService) Get(ctx context.Context, tenantID, id int64) (*model.Ad, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdService) List(ctx context.Context, tenantID int64, f model.AdFilter) ([]*model.Ad, int64, error) {
	args := m.Called(ctx, tenantID, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Ad), args.Get(1).(int64), args.Error(2)
}

func (m *MockAdService) Patch(ctx context.Context, tenantID, id int64, p model.AdPatch) (*model.Ad, error) {
	args := m.Called(ctx, tenantID, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdService) Delete(ctx context.Context, tenantID, id int64) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockAdService) Schedule(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.Ad, error) {
	args := m.Called(ctx, tenantID, id, scheduledAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ad), args.Error(1)
}

func (m *MockAdService) DeliveryNotes(ctx context.Context, tenantID, adID int64) ([]*model.AdDeliveryNote, error) {
	args := m.Called(ctx, tenantID, adID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AdDeliveryNote), args.Error(1)
}

func TestAdHandler_CreateAd(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes, _ := json.Marshal(map[string]any{
			"title":   "Summer sale",
			"body":    "50% off",
			"channel": "email",
		})

		svc.On("Create", mock.Anything, mock.MatchedBy(func(r model.AdCreateRequest) bool {
			return r.TenantID == 1 && r.Title == "Summer sale" && r.Channel == "email"
		})).Return(&model.Ad{ID: 5, Status: model.AdStatusDraft}, nil)

		ctx := tenantTestContext("POST", "/ads", 1, bodyBytes)
		handler.CreateAd(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response model.Ad
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, model.AdStatusDraft, response.Status)

		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		ctx := tenantTestContext("POST", "/ads", 1, []byte("{"))
		handler.CreateAd(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestAdHandler_PatchAd(t *testing.T) {
	t.Run("absent campaign_id leaves it untouched", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes, _ := json.Marshal(map[string]any{"title": "New title"})

		svc.On("Patch", mock.Anything, int64(1), int64(5), mock.MatchedBy(func(p model.AdPatch) bool {
			return p.Title != nil && *p.Title == "New title" && p.CampaignID == nil
		})).Return(&model.Ad{ID: 5, Title: "New title"}, nil)

		ctx := tenantTestContext("PATCH", "/ads/5", 1, bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.PatchAd(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("explicit null campaign_id clears it", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes := []byte(`{"campaign_id": null}`)

		svc.On("Patch", mock.Anything, int64(1), int64(5), mock.MatchedBy(func(p model.AdPatch) bool {
			return p.CampaignID != nil && *p.CampaignID == nil
		})).Return(&model.Ad{ID: 5}, nil)

		ctx := tenantTestContext("PATCH", "/ads/5", 1, bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.PatchAd(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("numeric campaign_id reassigns", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes := []byte(`{"campaign_id": 9}`)

		svc.On("Patch", mock.Anything, int64(1), int64(5), mock.MatchedBy(func(p model.AdPatch) bool {
			return p.CampaignID != nil && *p.CampaignID != nil && **p.CampaignID == 9
		})).Return(&model.Ad{ID: 5}, nil)

		ctx := tenantTestContext("PATCH", "/ads/5", 1, bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.PatchAd(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("unknown ad is 404", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		svc.On("Patch", mock.Anything, int64(1), int64(999), mock.Anything).
			Return(nil, services.ErrNotFound)

		ctx := tenantTestContext("PATCH", "/ads/999", 1, []byte(`{"title":"x"}`))
		ctx.SetUserValue("id", "999")
		handler.PatchAd(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}

func TestAdHandler_ScheduleAd(t *testing.T) {
	t.Run("schedules with parsed time", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes := []byte(`{"scheduled_at": "2026-09-15T09:00:00Z"}`)

		svc.On("Schedule", mock.Anything, int64(1), int64(5), mock.MatchedBy(func(at time.Time) bool {
			return at.UTC().Hour() == 9 && at.UTC().Day() == 15
		})).Return(&model.Ad{ID: 5, Status: model.AdStatusScheduled}, nil)

		ctx := tenantTestContext("POST", "/ads/5/schedule", 1, bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.ScheduleAd(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.Ad
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, model.AdStatusScheduled, response.Status)

		svc.AssertExpectations(t)
	})

	t.Run("past schedule rejected by service", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		bodyBytes := []byte(`{"scheduled_at": "2020-01-01T00:00:00Z"}`)

		svc.On("Schedule", mock.Anything, int64(1), int64(5), mock.Anything).
			Return(nil, services.ErrScheduleInPast)

		ctx := tenantTestContext("POST", "/ads/5/schedule", 1, bodyBytes)
		ctx.SetUserValue("id", "5")
		handler.ScheduleAd(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("unparseable time", func(t *testing.T) {
		svc := new(MockAdService)
		handler := NewAdHandler(svc)

		ctx := tenantTestContext("POST", "/ads/5/schedule", 1, []byte(`{"scheduled_at": "soon"}`))
		ctx.SetUserValue("id", "5")
		handler.ScheduleAd(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestAdHandler_DeleteAd(t *testing.T) {
	svc := new(MockAdService)
	handler := NewAdHandler(svc)

	svc.On("Delete", mock.Anything, int64(1), int64(5)).Return(nil)

	ctx := tenantTestContext("DELETE", "/ads/5", 1, nil)
	ctx.SetUserValue("id", "5")
	handler.DeleteAd(ctx)

	assert.Equal(t, 204, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

func TestAdHandler_ListAdDeliveries(t *testing.T) {
	svc := new(MockAdService)
	handler := NewAdHandler(svc)

	svc.On("DeliveryNotes", mock.Anything, int64(1), int64(5)).
		Return([]*model.AdDeliveryNote{{ID: 1, AdID: 5, Result: "ok"}}, nil)

	ctx := tenantTestContext("GET", "/ads/5/deliveries", 1, nil)
	ctx.SetUserValue("id", "5")
	handler.ListAdDeliveries(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var response struct {
		Items []*model.AdDeliveryNote `json:"items"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
	require.Len(t, response.Items, 1)
	assert.Equal(t, "ok", response.Items[0].Result)

	svc.AssertExpectations(t)
}
