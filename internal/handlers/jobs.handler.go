package handlers

import (
	"context"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/worker"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type DeliveryProcessor interface {
	ProcessBatch(ctx context.Context) (*model.WorkerReport, error)
}

type AdPromoter interface {
	RunDue(ctx context.Context) (*worker.PromoterReport, error)
}

// JobsHandler exposes the worker passes as admin endpoints so
// operators and cron can force a run without waiting for the ticker.
type JobsHandler struct {
	processor DeliveryProcessor
	promoter  AdPromoter
}

func NewJobsHandler(processor DeliveryProcessor, promoter AdPromoter) *JobsHandler {
	return &JobsHandler{
		processor: processor,
		promoter:  promoter,
	}
}

func RegisterJobRoutes(e *router.Group, h *JobsHandler, adminKey string) {
	e.POST("/jobs/process-deliveries", AdminKeyGuard(adminKey, h.ProcessDeliveries))
	e.POST("/jobs/run-due", AdminKeyGuard(adminKey, h.RunDue))
}

func (h *JobsHandler) ProcessDeliveries(ctx *xhttp.RequestCtx) {
	report, err := h.processor.ProcessBatch(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}

func (h *JobsHandler) RunDue(ctx *xhttp.RequestCtx) {
	report, err := h.promoter.RunDue(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}
