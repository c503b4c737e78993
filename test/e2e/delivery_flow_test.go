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
	"github.com/admux/ad-gateway/internal/worker"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type TestEnvironment struct {
	DB              *pg.DB
	Clock           time.Time
	Quota           *quota.Service
	DeliveryRepo    *repository.DeliveryRepository
	AdRepo          *repository.AdRepository
	DeliveryService *services.DeliveryService
	AdService       *services.AdService
	DeliveryHandler *handlers.DeliveryHandler
	AdHandler       *handlers.AdHandler
	Worker          *worker.Worker
	Promoter        *worker.Promoter
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db := helpers.SetupTestDB(t)

	env := &TestEnvironment{
		DB:    db,
		Clock: time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
	}
	clock := func() time.Time { return env.Clock }

	planRepo := repository.NewPlanRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	env.Quota = quota.NewService(planRepo, usageRepo).WithClock(clock)

	env.DeliveryRepo = repository.NewDeliveryRepository(db)
	env.AdRepo = repository.NewAdRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)

	env.DeliveryService = services.NewDeliveryService(db, env.DeliveryRepo, campaignRepo, env.Quota)
	env.AdService = services.NewAdService(db, env.AdRepo, campaignRepo, env.Quota)

	env.DeliveryHandler = handlers.NewDeliveryHandler(env.DeliveryService)
	env.AdHandler = handlers.NewAdHandler(env.AdService)

	env.Worker = worker.NewWorker(db, env.DeliveryRepo, 50).WithClock(clock)
	env.Promoter = worker.NewPromoter(db, env.AdRepo, env.Quota).WithClock(clock)

	return env
}

func (env *TestEnvironment) Advance(d time.Duration) {
	env.Clock = env.Clock.Add(d)
}

func tenantRequest(method, path string, tenantID int64, body any) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		b, _ := json.Marshal(body)
		req.SetBody(b)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	ctx.SetUserValue("tenant_id", tenantID)
	return ctx
}

func TestDeliveryLifecycle(t *testing.T) {
	env := setupE2EEnvironment(t)
	helpers.SetTenantPlan(t, env.DB, 1, model.PlanPro, model.PlanStatusActive)

	// enqueue through the handler
	ctx := tenantRequest("POST", "/deliveries", 1, map[string]any{
		"channel":         "email",
		"to_addr":         "ada@example.com",
		"idempotency_key": "order-42",
	})
	env.DeliveryHandler.EnqueueDelivery(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	var created model.Delivery
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))
	assert.Equal(t, model.DeliveryStatusQueued, created.Status)

	// same key replays the original row with the same status code
	replay := tenantRequest("POST", "/deliveries", 1, map[string]any{
		"channel":         "email",
		"to_addr":         "ada@example.com",
		"idempotency_key": "order-42",
	})
	env.DeliveryHandler.EnqueueDelivery(replay)
	require.Equal(t, 201, replay.Response.StatusCode())

	var replayed model.Delivery
	require.NoError(t, json.Unmarshal(replay.Response.Body(), &replayed))
	assert.Equal(t, created.ID, replayed.ID)

	// one worker pass resolves it
	report, err := env.Worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	get := tenantRequest("GET", "/deliveries/1", 1, nil)
	get.SetUserValue("id", "1")
	env.DeliveryHandler.GetDelivery(get)
	require.Equal(t, 200, get.Response.StatusCode())

	var settled model.Delivery
	require.NoError(t, json.Unmarshal(get.Response.Body(), &settled))
	assert.Equal(t, model.DeliveryStatusSent, settled.Status)
	assert.Equal(t, 1, settled.Attempts)
}

func TestFailingDeliveryDeadLetters(t *testing.T) {
	env := setupE2EEnvironment(t)
	helpers.SetTenantPlan(t, env.DB, 1, model.PlanPro, model.PlanStatusActive)

	ctx := tenantRequest("POST", "/deliveries", 1, map[string]any{
		"channel":      "email",
		"to_addr":      "fail@example.com",
		"max_attempts": 2,
	})
	env.DeliveryHandler.EnqueueDelivery(ctx)
	require.Equal(t, 201, ctx.Response.StatusCode())

	var created model.Delivery
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &created))

	// first attempt parks it for retry
	report, err := env.Worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Retried)

	d, err := env.DeliveryRepo.Get(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusRetrying, d.Status)
	require.NotNil(t, d.NextAttemptAt)

	// not due yet
	report, err = env.Worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)

	// past the backoff the final attempt dead-letters it
	env.Advance(16 * time.Second)
	report, err = env.Worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	d, err = env.DeliveryRepo.Get(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusFailed, d.Status)
	assert.Equal(t, 2, d.Attempts)
	require.NotNil(t, d.LastError)

	// terminal rows never come back
	env.Advance(2 * time.Hour)
	report, err = env.Worker.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
}

func TestCanceledTenantCannotEnqueue(t *testing.T) {
	env := setupE2EEnvironment(t)
	helpers.SetTenantPlan(t, env.DB, 1, model.PlanPro, model.PlanStatusCanceled)

	ctx := tenantRequest("POST", "/deliveries", 1, map[string]any{
		"channel": "email",
		"to_addr": "ada@example.com",
	})
	env.DeliveryHandler.EnqueueDelivery(ctx)
	assert.Equal(t, 402, ctx.Response.StatusCode())
}

func TestScheduledAdPromotion(t *testing.T) {
	env := setupE2EEnvironment(t)
	helpers.SetTenantPlan(t, env.DB, 1, model.PlanFree, model.PlanStatusActive)

	create := tenantRequest("POST", "/ads", 1, map[string]any{
		"title":   "Launch teaser",
		"body":    "Coming soon",
		"channel": "email",
	})
	env.AdHandler.CreateAd(create)
	require.Equal(t, 201, create.Response.StatusCode())

	var ad model.Ad
	require.NoError(t, json.Unmarshal(create.Response.Body(), &ad))

	due := env.Clock.Add(30 * time.Minute)
	schedule := tenantRequest("POST", "/ads/1/schedule", 1, map[string]any{
		"scheduled_at": due.Format(time.RFC3339),
	})
	schedule.SetUserValue("id", "1")
	env.AdHandler.ScheduleAd(schedule)
	require.Equal(t, 200, schedule.Response.StatusCode())

	// not due yet
	report, err := env.Promoter.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)

	env.Advance(31 * time.Minute)
	report, err = env.Promoter.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Promoted)

	got, err := env.AdService.Get(context.Background(), 1, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AdStatusSent, got.Status)

	notes := tenantRequest("GET", "/ads/1/deliveries", 1, nil)
	notes.SetUserValue("id", "1")
	env.AdHandler.ListAdDeliveries(notes)
	require.Equal(t, 200, notes.Response.StatusCode())

	var noteList struct {
		Items []*model.AdDeliveryNote `json:"items"`
	}
	require.NoError(t, json.Unmarshal(notes.Response.Body(), &noteList))
	require.Len(t, noteList.Items, 1)
	assert.Equal(t, "ok", noteList.Items[0].Result)

	// the promotion was charged against the daily send quota
	snap, err := env.Quota.Snapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Daily.SendsTotal)
	assert.Equal(t, 1, snap.Daily.SendsEmail)

	// a second run is a no-op
	report, err = env.Promoter.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)
}
