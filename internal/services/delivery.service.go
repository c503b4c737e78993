package services

import (
	"context"
	"errors"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/prom"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("error notfound")
)

type DeliveryRepository interface {
	Enqueue(ctx context.Context, d *model.Delivery) (*model.Delivery, bool, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Delivery, error)
	List(ctx context.Context, tenantID int64, f model.DeliveryFilter) ([]*model.Delivery, int64, error)
	SLAWindow(ctx context.Context, tenantID int64, startDay time.Time, days int) (*model.SLAReport, error)
}

type CampaignReader interface {
	Get(ctx context.Context, tenantID, id int64) (*model.Campaign, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DeliveryService struct {
	db        Transactor
	repo      DeliveryRepository
	campaigns CampaignReader
	quota     *quota.Service
	now       func() time.Time
}

func NewDeliveryService(db Transactor, repo DeliveryRepository, campaigns CampaignReader, q *quota.Service) *DeliveryService {
	return &DeliveryService{
		db:        db,
		repo:      repo,
		campaigns: campaigns,
		quota:     q,
		now:       time.Now,
	}
}

func (s *DeliveryService) WithClock(now func() time.Time) *DeliveryService {
	s.now = now
	return s
}

// Enqueue validates, checks quota and inserts in one transaction.
// Re-submitting an idempotency key returns the original row without
// touching the quota counters again.
func (s *DeliveryService) Enqueue(ctx context.Context, req model.DeliveryEnqueueRequest) (*model.Delivery, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if req.CampaignID != nil {
		if _, err := s.campaigns.Get(ctx, req.TenantID, *req.CampaignID); err != nil {
			if errors.Is(err, repository.ErrCampaignNotFound) {
				return nil, false, ErrNotFound
			}
			return nil, false, err
		}
	}

	now := s.now().UTC()
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	delivery := &model.Delivery{
		TenantID:       req.TenantID,
		CampaignID:     req.CampaignID,
		Channel:        req.Channel,
		ToAddr:         req.ToAddr,
		Payload:        payload,
		IdempotencyKey: key,
		Status:         model.DeliveryStatusQueued,
		MaxAttempts:    maxAttempts,
		NextAttemptAt:  req.ScheduledAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var stored *model.Delivery
	var created bool
	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quota.CheckDailySend(txCtx, req.TenantID); err != nil {
			return err
		}

		var err error
		stored, created, err = s.repo.Enqueue(txCtx, delivery)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		return s.quota.IncrementDailySend(txCtx, req.TenantID, req.Channel)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		prom.IncDeliveryEnqueued(req.Channel)
		logger.Info("delivery enqueued",
			"tenant_id", req.TenantID,
			"delivery_id", stored.ID,
			"channel", req.Channel)
	}
	return stored, created, nil
}

func (s *DeliveryService) Get(ctx context.Context, tenantID, id int64) (*model.Delivery, error) {
	d, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrDeliveryNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DeliveryService) List(ctx context.Context, tenantID int64, f model.DeliveryFilter) ([]*model.Delivery, int64, error) {
	return s.repo.List(ctx, tenantID, f)
}

// SLA aggregates deliveries created in the trailing days window,
// inclusive of today.
func (s *DeliveryService) SLA(ctx context.Context, tenantID int64, days int) (*model.SLAReport, error) {
	if days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}
	now := s.now().UTC()
	startDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))
	return s.repo.SLAWindow(ctx, tenantID, startDay, days)
}
