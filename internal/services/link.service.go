package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrSlugTaken = errors.New("slug already in use")
)

type ShortLinkRepository interface {
	Create(ctx context.Context, l *model.ShortLink) (*model.ShortLink, error)
	Get(ctx context.Context, tenantID, id int64) (*model.ShortLink, error)
	List(ctx context.Context, tenantID int64) ([]*model.ShortLink, error)
	Resolve(ctx context.Context, slug string) (*model.ShortLink, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

// ClickRecorder persists an engagement event for a resolved redirect.
type ClickRecorder interface {
	Record(ctx context.Context, ev *model.MetricEvent) error
}

type ShortLinkService struct {
	db     Transactor
	repo   ShortLinkRepository
	quota  *quota.Service
	events ClickRecorder
	now    func() time.Time
}

func NewShortLinkService(db Transactor, repo ShortLinkRepository, q *quota.Service, events ClickRecorder) *ShortLinkService {
	return &ShortLinkService{
		db:     db,
		repo:   repo,
		quota:  q,
		events: events,
		now:    time.Now,
	}
}

// Create charges the monthly links_created quota. An empty slug gets a
// generated short one.
func (s *ShortLinkService) Create(ctx context.Context, req model.ShortLinkCreateRequest) (*model.ShortLink, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = generateSlug()
	}

	now := s.now().UTC()
	link := &model.ShortLink{
		TenantID:  req.TenantID,
		AdID:      req.AdID,
		Slug:      slug,
		TargetURL: strings.TrimSpace(req.TargetURL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created *model.ShortLink
	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quota.CheckMonthlyResource(txCtx, req.TenantID, model.UsageLinksCreated); err != nil {
			return err
		}
		var err error
		created, err = s.repo.Create(txCtx, link)
		if err != nil {
			if errors.Is(err, repository.ErrSlugTaken) {
				return ErrSlugTaken
			}
			return err
		}
		return s.quota.IncrementMonthlyResource(txCtx, req.TenantID, model.UsageLinksCreated)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ShortLinkService) List(ctx context.Context, tenantID int64) ([]*model.ShortLink, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *ShortLinkService) Delete(ctx context.Context, tenantID, id int64) error {
	err := s.repo.Delete(ctx, tenantID, id)
	if errors.Is(err, repository.ErrShortLinkNotFound) {
		return ErrNotFound
	}
	return err
}

// Resolve returns the redirect target for a slug, bumps the click
// counter and records a click event attributed to the link's ad.
func (s *ShortLinkService) Resolve(ctx context.Context, slug string) (*model.ShortLink, error) {
	link, err := s.repo.Resolve(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrShortLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	err = s.events.Record(ctx, &model.MetricEvent{
		TenantID:  link.TenantID,
		AdID:      link.AdID,
		LinkID:    &link.ID,
		EventType: model.MetricEventClick,
		Value:     1,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func generateSlug() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
