package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/admux/ad-gateway/pkg/logger"
)

// Runner drives the delivery worker and the ad promoter on a fixed
// interval with optional jitter. Trigger forces an immediate pass,
// which backs the admin job endpoints.
type Runner struct {
	worker   *Worker
	promoter *Promoter
	interval time.Duration
	jitter   time.Duration
	trigger  chan struct{}
}

func NewRunner(w *Worker, p *Promoter, interval, jitter time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		worker:   w,
		promoter: p,
		interval: interval,
		jitter:   jitter,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate pass. Non-blocking; a pending trigger
// coalesces with later ones.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run loops until ctx is canceled. Each pass promotes due ads and
// then drains one delivery batch.
func (r *Runner) Run(ctx context.Context) {
	logger.Info("worker runner started", "interval", r.interval.String())

	timer := time.NewTimer(r.nextWait())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker runner stopped")
			return
		case <-timer.C:
		case <-r.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		r.pass(ctx)
		timer.Reset(r.nextWait())
	}
}

func (r *Runner) pass(ctx context.Context) {
	if _, err := r.promoter.RunDue(ctx); err != nil {
		logger.Error("ad promotion pass failed", "error", err)
	}
	if _, err := r.worker.ProcessBatch(ctx); err != nil {
		logger.Error("delivery batch pass failed", "error", err)
	}
}

func (r *Runner) nextWait() time.Duration {
	if r.jitter <= 0 {
		return r.interval
	}
	return r.interval + time.Duration(rand.Int63n(int64(r.jitter)))
}
