package services

import (
	"context"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metricsEnv struct {
	db     *pg.DB
	svc    *MetricsService
	events *repository.MetricEventRepository
	ads    *repository.AdRepository
	links  *repository.ShortLinkRepository
	now    time.Time
}

func setupMetricsService(t *testing.T) *metricsEnv {
	db := helpers.SetupTestDB(t)
	env := &metricsEnv{
		db:     db,
		events: repository.NewMetricEventRepository(db),
		ads:    repository.NewAdRepository(db),
		links:  repository.NewShortLinkRepository(db),
		now:    time.Now().UTC().Truncate(time.Second),
	}
	env.svc = NewMetricsService(
		env.events,
		env.ads,
		repository.NewCampaignRepository(db),
		repository.NewDeliveryRepository(db),
		env.links,
	).WithClock(func() time.Time { return env.now })
	return env
}

func (e *metricsEnv) record(t *testing.T, eventType model.MetricEventType, adID *int64, at time.Time) {
	t.Helper()
	require.NoError(t, e.events.Record(context.Background(), &model.MetricEvent{
		TenantID:  1,
		AdID:      adID,
		EventType: eventType,
		Value:     1,
		CreatedAt: at,
	}))
}

func (e *metricsEnv) createAd(t *testing.T, channel string, campaignID *int64) *model.Ad {
	t.Helper()
	ad, err := e.ads.Create(context.Background(), &model.Ad{
		TenantID:   1,
		CampaignID: campaignID,
		Title:      "ad",
		Body:       "body",
		Channel:    channel,
		Status:     model.AdStatusDraft,
		CreatedAt:  e.now,
		UpdatedAt:  e.now,
	})
	require.NoError(t, err)
	return ad
}

func TestMetricsService_Overview(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	for i := 0; i < 4; i++ {
		env.record(t, model.MetricEventClick, nil, env.now)
	}
	env.record(t, model.MetricEventConversion, nil, env.now)

	report, err := env.svc.Overview(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), report.Clicks)
	assert.Equal(t, int64(1), report.Conversions)
	// impressions are proxied by clicks
	assert.Equal(t, int64(4), report.ImpressionsProxy)
	assert.Equal(t, 1.0, report.CTRProxy)

	t.Run("empty tenant reports zeros", func(t *testing.T) {
		report, err := env.svc.Overview(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Clicks)
		assert.Equal(t, 0.0, report.CTRProxy)
	})
}

func TestMetricsService_History(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	yesterday := env.now.AddDate(0, 0, -1)
	env.record(t, model.MetricEventClick, nil, yesterday)
	env.record(t, model.MetricEventClick, nil, yesterday)
	env.record(t, model.MetricEventConversion, nil, env.now)
	// out of window
	env.record(t, model.MetricEventClick, nil, env.now.AddDate(0, 0, -30))

	history, err := env.svc.History(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, history.Days)
	require.Len(t, history.Points, 7)

	first := history.Points[0]
	assert.Equal(t, env.now.AddDate(0, 0, -6).Format("2006-01-02"), first.Day)
	assert.Zero(t, first.Clicks)

	byDay := make(map[string]model.EngagementHistoryPoint)
	for _, p := range history.Points {
		byDay[p.Day] = p
	}
	yp := byDay[yesterday.Format("2006-01-02")]
	assert.Equal(t, int64(2), yp.Clicks)
	// no pixel hits that day, clicks stand in for impressions
	assert.Equal(t, int64(2), yp.ImpressionsProxy)
	assert.Equal(t, 1.0, yp.CTRProxy)

	tp := byDay[env.now.Format("2006-01-02")]
	assert.Equal(t, int64(1), tp.Conversions)
	assert.Zero(t, tp.Clicks)

	t.Run("defaults and caps the window", func(t *testing.T) {
		history, err := env.svc.History(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 14, history.Days)

		history, err = env.svc.History(ctx, 1, 500)
		require.NoError(t, err)
		assert.Equal(t, 90, history.Days)
	})
}

func TestMetricsService_Channels(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	emailAd := env.createAd(t, "email", nil)
	pushAd := env.createAd(t, "push", nil)

	env.record(t, model.MetricEventImpression, &emailAd.ID, env.now)
	env.record(t, model.MetricEventImpression, &emailAd.ID, env.now)
	env.record(t, model.MetricEventClick, &emailAd.ID, env.now)
	env.record(t, model.MetricEventClick, &pushAd.ID, env.now)
	// no ad attribution, excluded from the channel breakdown
	env.record(t, model.MetricEventClick, nil, env.now)

	report, err := env.svc.Channels(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, report.Points, 2)

	// sorted by channel name
	email := report.Points[0]
	assert.Equal(t, "email", email.Channel)
	assert.Equal(t, int64(1), email.Clicks)
	assert.Equal(t, int64(2), email.ImpressionsProxy)
	assert.Equal(t, 0.5, email.CTRProxy)

	push := report.Points[1]
	assert.Equal(t, "push", push.Channel)
	assert.Equal(t, int64(1), push.ImpressionsProxy)
}

func TestMetricsService_Campaigns(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	campaign := helpers.CreateTestCampaign(t, env.db, 1, "Spring launch")
	deliveries := repository.NewDeliveryRepository(env.db)

	enqueue := func(campaignID *int64, status model.DeliveryStatus) {
		d := &model.Delivery{
			TenantID:       1,
			CampaignID:     campaignID,
			Channel:        "email",
			ToAddr:         "a@example.com",
			IdempotencyKey: helpers.RandomIdempotencyKey(),
			Status:         status,
			MaxAttempts:    5,
			CreatedAt:      env.now,
			UpdatedAt:      env.now,
		}
		_, _, err := deliveries.Enqueue(ctx, d)
		require.NoError(t, err)
	}

	enqueue(&campaign.ID, model.DeliveryStatusQueued)
	enqueue(&campaign.ID, model.DeliveryStatusQueued)
	enqueue(nil, model.DeliveryStatusQueued)

	report, err := env.svc.Campaigns(ctx, 1, 30)
	require.NoError(t, err)
	require.Len(t, report.Points, 2)

	// busiest first
	top := report.Points[0]
	require.NotNil(t, top.CampaignID)
	assert.Equal(t, campaign.ID, *top.CampaignID)
	assert.Equal(t, "Spring launch", top.CampaignName)
	assert.Equal(t, int64(2), top.Total)
	assert.Equal(t, int64(2), top.Queued)

	unassigned := report.Points[1]
	assert.Nil(t, unassigned.CampaignID)
	assert.Equal(t, "No campaign", unassigned.CampaignName)
	assert.Equal(t, int64(1), unassigned.Total)
}

func TestMetricsService_CampaignConversions(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	campaign := helpers.CreateTestCampaign(t, env.db, 1, "Spring launch")
	attributed := env.createAd(t, "email", &campaign.ID)
	orphan := env.createAd(t, "push", nil)

	env.record(t, model.MetricEventClick, &attributed.ID, env.now)
	env.record(t, model.MetricEventConversion, &attributed.ID, env.now)
	env.record(t, model.MetricEventClick, &orphan.ID, env.now)

	report, err := env.svc.CampaignConversions(ctx, 1, 30)
	require.NoError(t, err)
	require.Len(t, report.Points, 2)

	// most conversions first
	top := report.Points[0]
	assert.Equal(t, "Spring launch", top.CampaignName)
	assert.Equal(t, int64(1), top.Clicks)
	assert.Equal(t, int64(1), top.Conversions)

	second := report.Points[1]
	assert.Nil(t, second.CampaignID)
	assert.Equal(t, "No campaign", second.CampaignName)
	assert.Equal(t, int64(1), second.Clicks)
	assert.Zero(t, second.Conversions)
}

func TestMetricsService_RecordImpression(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	ad := env.createAd(t, "email", nil)
	link, err := env.links.Create(ctx, &model.ShortLink{
		TenantID:  2,
		AdID:      &ad.ID,
		Slug:      "spring",
		TargetURL: "https://example.com",
		CreatedAt: env.now,
		UpdatedAt: env.now,
	})
	require.NoError(t, err)

	t.Run("known slug overrides tenant and fills the ad", func(t *testing.T) {
		require.NoError(t, env.svc.RecordImpression(ctx, 1, nil, "spring"))

		window, err := env.events.Window(ctx, 2, env.now.Add(-time.Minute))
		require.NoError(t, err)
		require.Len(t, window, 1)
		assert.Equal(t, model.MetricEventImpression, window[0].EventType)
		require.NotNil(t, window[0].AdID)
		assert.Equal(t, ad.ID, *window[0].AdID)
		require.NotNil(t, window[0].LinkID)
		assert.Equal(t, link.ID, *window[0].LinkID)
	})

	t.Run("unknown slug still records against the caller tenant", func(t *testing.T) {
		require.NoError(t, env.svc.RecordImpression(ctx, 5, nil, "nope"))

		total, err := env.events.SumByType(ctx, 5, model.MetricEventImpression)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestMetricsService_RecordConversion(t *testing.T) {
	ctx := context.Background()
	env := setupMetricsService(t)

	ad := env.createAd(t, "email", nil)
	_, err := env.links.Create(ctx, &model.ShortLink{
		TenantID:  1,
		AdID:      &ad.ID,
		Slug:      "buy",
		TargetURL: "https://example.com/checkout",
		CreatedAt: env.now,
		UpdatedAt: env.now,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.RecordConversion(ctx, "buy"))

	total, err := env.events.SumByType(ctx, 1, model.MetricEventConversion)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	t.Run("unknown slug is not found", func(t *testing.T) {
		assert.ErrorIs(t, env.svc.RecordConversion(ctx, "missing"), ErrNotFound)
	})
}
