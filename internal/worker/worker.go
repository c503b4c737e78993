// Package worker drains the delivery queue and promotes scheduled ads.
// Both passes are driven by the Runner and safe to trigger manually
// through the admin job endpoints.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/pkg/prom"
)

const (
	baseRetryDelay = 15 * time.Second
	maxRetryDelay  = 3600 * time.Second
)

// RetryDelay returns the wait before the next attempt after attempt
// failures: 15s doubling per attempt, capped at one hour.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := baseRetryDelay << (attempt - 1)
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// shouldFail decides the simulated provider outcome. Deterministic so
// retries of the same delivery always resolve the same way.
func shouldFail(d *model.Delivery) (bool, string) {
	if strings.Contains(strings.ToLower(d.ToAddr), "fail") {
		return true, "provider rejected recipient"
	}
	if v, ok := d.Payload["force_fail"]; ok {
		if b, ok := v.(bool); ok && b {
			return true, "forced failure"
		}
	}
	if strings.EqualFold(d.Channel, "fail") {
		return true, "unroutable channel"
	}
	return false, ""
}

type Worker struct {
	db         *pg.DB
	deliveries *repository.DeliveryRepository
	batchSize  int
	now        func() time.Time
}

func NewWorker(db *pg.DB, deliveries *repository.DeliveryRepository, batchSize int) *Worker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Worker{
		db:         db,
		deliveries: deliveries,
		batchSize:  batchSize,
		now:        time.Now,
	}
}

func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// ProcessBatch claims and resolves one batch of due deliveries. Each
// record is handled in its own transaction so one poisoned row cannot
// roll back the rest of the batch. Rows that lost a claim race are
// skipped silently.
func (w *Worker) ProcessBatch(ctx context.Context) (*model.WorkerReport, error) {
	started := w.now().UTC()
	report := &model.WorkerReport{Ts: started}

	candidates, err := w.deliveries.SelectEligible(ctx, started, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("select eligible deliveries: %w", err)
	}

	for _, candidate := range candidates {
		outcome, err := w.processOne(ctx, candidate.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotEligible) {
				continue
			}
			logger.Error("delivery processing failed", "delivery_id", candidate.ID, "error", err)
			continue
		}

		report.Processed++
		switch outcome {
		case model.DeliveryStatusSent:
			report.Sent++
		case model.DeliveryStatusRetrying:
			report.Retried++
		case model.DeliveryStatusFailed:
			report.Failed++
		}
		prom.IncDeliveryProcessed(string(outcome))
	}

	prom.ObserveWorkerBatch(w.now().UTC().Sub(started).Seconds(), report.Processed)
	if report.Processed > 0 {
		logger.Info("delivery batch processed",
			"processed", report.Processed,
			"sent", report.Sent,
			"retried", report.Retried,
			"failed", report.Failed)
	}
	return report, nil
}

// processOne runs claim and resolve for a single delivery inside one
// transaction and reports the status it settled on.
func (w *Worker) processOne(ctx context.Context, id int64) (model.DeliveryStatus, error) {
	var outcome model.DeliveryStatus

	err := w.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		now := w.now().UTC()
		claimed, err := w.deliveries.Claim(txCtx, id, now)
		if err != nil {
			return err
		}

		failed, reason := shouldFail(claimed)
		if !failed {
			outcome = model.DeliveryStatusSent
			return w.deliveries.MarkSent(txCtx, id, now)
		}

		if claimed.Attempts >= claimed.MaxAttempts {
			outcome = model.DeliveryStatusFailed
			return w.deliveries.MarkFailed(txCtx, id, reason, now)
		}

		outcome = model.DeliveryStatusRetrying
		next := now.Add(RetryDelay(claimed.Attempts))
		return w.deliveries.MarkRetrying(txCtx, id, reason, next, now)
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}
