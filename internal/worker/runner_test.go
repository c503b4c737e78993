package worker

import (
	"context"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_TriggerForcesImmediatePass(t *testing.T) {
	db := helpers.SetupTestDB(t)
	deliveries := repository.NewDeliveryRepository(db)
	ads := repository.NewAdRepository(db)
	q := quota.NewService(repository.NewPlanRepository(db), repository.NewUsageRepository(db))

	w := NewWorker(db, deliveries, 50)
	p := NewPromoter(db, ads, q)
	runner := NewRunner(w, p, time.Hour, 0)

	d := helpers.EnqueueTestDelivery(t, db, 1, "email", "user@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	runner.Trigger()

	done := helpers.WaitForCondition(t, 5*time.Second, func() bool {
		got, err := deliveries.Get(context.Background(), 1, d.ID)
		return err == nil && got.Status == model.DeliveryStatusSent
	})
	require.True(t, done, "delivery should be processed after trigger")
}

func TestRunner_TickerDrivesPasses(t *testing.T) {
	db := helpers.SetupTestDB(t)
	deliveries := repository.NewDeliveryRepository(db)
	ads := repository.NewAdRepository(db)
	q := quota.NewService(repository.NewPlanRepository(db), repository.NewUsageRepository(db))

	w := NewWorker(db, deliveries, 50)
	p := NewPromoter(db, ads, q)
	runner := NewRunner(w, p, 20*time.Millisecond, 0)

	d := helpers.EnqueueTestDelivery(t, db, 1, "email", "user@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Run(ctx)

	done := helpers.WaitForCondition(t, 5*time.Second, func() bool {
		got, err := deliveries.Get(context.Background(), 1, d.ID)
		return err == nil && got.Status == model.DeliveryStatusSent
	})
	assert.True(t, done, "ticker should drive a pass without an explicit trigger")
}
