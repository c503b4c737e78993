package e2e

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/handlers"
	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/internal/services"
	"github.com/admux/ad-gateway/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type engagementEnv struct {
	Clock          time.Time
	AdService      *services.AdService
	LinkHandler    *handlers.ShortLinkHandler
	MetricsHandler *handlers.MetricsHandler
}

func setupEngagementEnvironment(t *testing.T) *engagementEnv {
	db := helpers.SetupTestDB(t)

	env := &engagementEnv{
		Clock: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
	}
	clock := func() time.Time { return env.Clock }

	q := quota.NewService(repository.NewPlanRepository(db), repository.NewUsageRepository(db)).WithClock(clock)
	metricRepo := repository.NewMetricEventRepository(db)
	adRepo := repository.NewAdRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	linkRepo := repository.NewShortLinkRepository(db)

	env.AdService = services.NewAdService(db, adRepo, campaignRepo, q)
	linkService := services.NewShortLinkService(db, linkRepo, q, metricRepo)
	metricsService := services.NewMetricsService(metricRepo, adRepo, campaignRepo, repository.NewDeliveryRepository(db), linkRepo).
		WithClock(clock)

	env.LinkHandler = handlers.NewShortLinkHandler(linkService)
	env.MetricsHandler = handlers.NewMetricsHandler(metricsService, nil)
	return env
}

func publicRequest(method, path string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

// Full engagement loop: a visitor follows a short link, loads the
// pixel and converts, and the dashboards reflect all three events.
func TestEngagementTracking(t *testing.T) {
	env := setupEngagementEnvironment(t)

	ad, err := env.AdService.Create(context.Background(), model.AdCreateRequest{
		TenantID: 1,
		Title:    "Spring sale",
		Body:     "Save big",
		Channel:  "email",
	})
	require.NoError(t, err)

	// tenant creates a tracked link for the ad
	create := tenantRequest("POST", "/links", 1, map[string]any{
		"ad_id":      ad.ID,
		"target_url": "https://example.com/promo",
		"slug":       "spring",
	})
	env.LinkHandler.CreateLink(create)
	require.Equal(t, 201, create.Response.StatusCode())

	// visitor follows the link
	redirect := publicRequest("GET", "/r/spring")
	redirect.SetUserValue("slug", "spring")
	env.LinkHandler.Redirect(redirect)
	require.Equal(t, 302, redirect.Response.StatusCode())

	// the landing page loads the pixel
	pixel := publicRequest("GET", "/px/impression.gif?link_slug=spring")
	env.MetricsHandler.GetImpressionPixel(pixel)
	require.Equal(t, 200, pixel.Response.StatusCode())
	assert.Equal(t, "image/gif", string(pixel.Response.Header.ContentType()))

	// and the visitor converts
	conversion := publicRequest("POST", "/events/conversion?slug=spring")
	env.MetricsHandler.PostConversion(conversion)
	require.Equal(t, 200, conversion.Response.StatusCode())

	// overview counts the click and the conversion
	overview := tenantRequest("GET", "/dashboard", 1, nil)
	env.MetricsHandler.GetOverview(overview)
	require.Equal(t, 200, overview.Response.StatusCode())

	var report model.EngagementReport
	require.NoError(t, json.Unmarshal(overview.Response.Body(), &report))
	assert.Equal(t, int64(1), report.Clicks)
	assert.Equal(t, int64(1), report.Conversions)

	// the channel breakdown attributes everything to the ad's channel
	channels := tenantRequest("GET", "/dashboard/channels", 1, nil)
	env.MetricsHandler.GetChannels(channels)
	require.Equal(t, 200, channels.Response.StatusCode())

	var breakdown model.ChannelEngagement
	require.NoError(t, json.Unmarshal(channels.Response.Body(), &breakdown))
	require.Len(t, breakdown.Points, 1)
	assert.Equal(t, "email", breakdown.Points[0].Channel)
	assert.Equal(t, int64(1), breakdown.Points[0].Clicks)
	assert.Equal(t, int64(1), breakdown.Points[0].Conversions)
	assert.Equal(t, int64(1), breakdown.Points[0].ImpressionsProxy)

	// an unknown slug neither redirects nor converts
	miss := publicRequest("GET", "/r/nope")
	miss.SetUserValue("slug", "nope")
	env.LinkHandler.Redirect(miss)
	assert.Equal(t, 404, miss.Response.StatusCode())
}
