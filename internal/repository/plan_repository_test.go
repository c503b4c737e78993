package repository

import (
	"context"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanRepository_Get(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewPlanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("unknown tenant defaults to free active", func(t *testing.T) {
		p, err := repo.Get(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, model.PlanFree, p.Plan)
		assert.Equal(t, model.PlanStatusActive, p.Status)
	})

	t.Run("repeated get keeps the existing row", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, 2, model.PlanPro, model.PlanStatusActive, now))

		p, err := repo.Get(ctx, 2, now)
		require.NoError(t, err)
		assert.Equal(t, model.PlanPro, p.Plan)
	})
}

func TestPlanRepository_Set(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewPlanRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("creates then updates", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, 1, model.PlanBusiness, model.PlanStatusActive, now))
		require.NoError(t, repo.Set(ctx, 1, model.PlanBusiness, model.PlanStatusCanceled, now))

		p, err := repo.Get(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, model.PlanBusiness, p.Plan)
		assert.Equal(t, model.PlanStatusCanceled, p.Status)
	})
}

func TestUsageRepository_Daily(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUsageRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("first read returns zeroed row", func(t *testing.T) {
		u, err := repo.GetDaily(ctx, 1, "2026-08-30", now)
		require.NoError(t, err)
		assert.Zero(t, u.SendsTotal)
		assert.Zero(t, u.SendsEmail)
	})

	t.Run("increment bumps total and channel", func(t *testing.T) {
		require.NoError(t, repo.IncrementDaily(ctx, 1, "2026-08-30", "email", 1, now))
		require.NoError(t, repo.IncrementDaily(ctx, 1, "2026-08-30", "whatsapp", 2, now))

		u, err := repo.GetDaily(ctx, 1, "2026-08-30", now)
		require.NoError(t, err)
		assert.Equal(t, 3, u.SendsTotal)
		assert.Equal(t, 1, u.SendsEmail)
		assert.Equal(t, 2, u.SendsWhatsapp)
	})

	t.Run("unknown channel counts toward total only", func(t *testing.T) {
		require.NoError(t, repo.IncrementDaily(ctx, 1, "2026-08-30", "pigeon", 1, now))

		u, err := repo.GetDaily(ctx, 1, "2026-08-30", now)
		require.NoError(t, err)
		assert.Equal(t, 4, u.SendsTotal)
	})

	t.Run("twitter aliases to x", func(t *testing.T) {
		require.NoError(t, repo.IncrementDaily(ctx, 1, "2026-08-30", "twitter", 1, now))

		u, err := repo.GetDaily(ctx, 1, "2026-08-30", now)
		require.NoError(t, err)
		assert.Equal(t, 1, u.SendsX)
	})

	t.Run("days are independent", func(t *testing.T) {
		u, err := repo.GetDaily(ctx, 1, "2026-08-31", now)
		require.NoError(t, err)
		assert.Zero(t, u.SendsTotal)
	})
}

func TestUsageRepository_Monthly(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewUsageRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("increment per field", func(t *testing.T) {
		require.NoError(t, repo.IncrementMonthly(ctx, 1, "2026-08", model.UsageAdsCreated, 1, now))
		require.NoError(t, repo.IncrementMonthly(ctx, 1, "2026-08", model.UsageAdsCreated, 1, now))
		require.NoError(t, repo.IncrementMonthly(ctx, 1, "2026-08", model.UsageLinksCreated, 1, now))

		u, err := repo.GetMonthly(ctx, 1, "2026-08", now)
		require.NoError(t, err)
		assert.Equal(t, 2, u.AdsCreated)
		assert.Equal(t, 1, u.LinksCreated)
		assert.Zero(t, u.TemplatesCreated)
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		err := repo.IncrementMonthly(ctx, 1, "2026-08", model.UsageField("widgets"), 1, now)
		assert.Error(t, err)
	})

	t.Run("months are independent", func(t *testing.T) {
		u, err := repo.GetMonthly(ctx, 1, "2026-09", now)
		require.NoError(t, err)
		assert.Zero(t, u.AdsCreated)
	})
}
