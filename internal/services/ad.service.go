package services

import (
	"context"
	"errors"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
)

var (
	ErrScheduleInPast = errors.New("scheduled_at must be in the future")
	ErrAdNotDraft     = errors.New("only draft or scheduled ads can be scheduled")
)

type AdRepository interface {
	Create(ctx context.Context, ad *model.Ad) (*model.Ad, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Ad, error)
	List(ctx context.Context, tenantID int64, f model.AdFilter) ([]*model.Ad, int64, error)
	Patch(ctx context.Context, tenantID, id int64, p model.AdPatch, now time.Time) (*model.Ad, error)
	Delete(ctx context.Context, tenantID, id int64) error
	Schedule(ctx context.Context, tenantID, id int64, scheduledAt, now time.Time) (*model.Ad, error)
	ListDeliveryNotes(ctx context.Context, tenantID, adID int64) ([]*model.AdDeliveryNote, error)
}

type AdService struct {
	db        Transactor
	repo      AdRepository
	campaigns CampaignReader
	quota     *quota.Service
	now       func() time.Time
}

func NewAdService(db Transactor, repo AdRepository, campaigns CampaignReader, q *quota.Service) *AdService {
	return &AdService{
		db:        db,
		repo:      repo,
		campaigns: campaigns,
		quota:     q,
		now:       time.Now,
	}
}

func (s *AdService) WithClock(now func() time.Time) *AdService {
	s.now = now
	return s
}

// Create charges the monthly ads_created quota and inserts the draft
// atomically.
func (s *AdService) Create(ctx context.Context, req model.AdCreateRequest) (*model.Ad, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.CampaignID != nil {
		if _, err := s.campaigns.Get(ctx, req.TenantID, *req.CampaignID); err != nil {
			if errors.Is(err, repository.ErrCampaignNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	now := s.now().UTC()
	ad := &model.Ad{
		TenantID:   req.TenantID,
		CampaignID: req.CampaignID,
		Title:      req.Title,
		Body:       req.Body,
		Channel:    req.Channel,
		Status:     model.AdStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var created *model.Ad
	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quota.CheckMonthlyResource(txCtx, req.TenantID, model.UsageAdsCreated); err != nil {
			return err
		}
		var err error
		created, err = s.repo.Create(txCtx, ad)
		if err != nil {
			return err
		}
		return s.quota.IncrementMonthlyResource(txCtx, req.TenantID, model.UsageAdsCreated)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *AdService) Get(ctx context.Context, tenantID, id int64) (*model.Ad, error) {
	ad, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ad, nil
}

func (s *AdService) List(ctx context.Context, tenantID int64, f model.AdFilter) ([]*model.Ad, int64, error) {
	return s.repo.List(ctx, tenantID, f)
}

func (s *AdService) Patch(ctx context.Context, tenantID, id int64, p model.AdPatch) (*model.Ad, error) {
	if p.CampaignID != nil && *p.CampaignID != nil {
		if _, err := s.campaigns.Get(ctx, tenantID, **p.CampaignID); err != nil {
			if errors.Is(err, repository.ErrCampaignNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	ad, err := s.repo.Patch(ctx, tenantID, id, p, s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ad, nil
}

func (s *AdService) Delete(ctx context.Context, tenantID, id int64) error {
	err := s.repo.Delete(ctx, tenantID, id)
	if errors.Is(err, repository.ErrAdNotFound) {
		return ErrNotFound
	}
	return err
}

// Schedule queues a draft or already scheduled ad for promotion at
// scheduledAt. Sent ads cannot be rescheduled.
func (s *AdService) Schedule(ctx context.Context, tenantID, id int64, scheduledAt time.Time) (*model.Ad, error) {
	now := s.now().UTC()
	if !scheduledAt.After(now) {
		return nil, ErrScheduleInPast
	}

	existing, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == model.AdStatusSent {
		return nil, ErrAdNotDraft
	}

	ad, err := s.repo.Schedule(ctx, tenantID, id, scheduledAt.UTC(), now)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ad, nil
}

func (s *AdService) DeliveryNotes(ctx context.Context, tenantID, adID int64) ([]*model.AdDeliveryNote, error) {
	notes, err := s.repo.ListDeliveryNotes(ctx, tenantID, adID)
	if err != nil {
		if errors.Is(err, repository.ErrAdNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return notes, nil
}
