package services

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/repository"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders with vars values.
// Placeholders without a matching variable are left untouched so a
// missing value is visible in the rendered output.
func RenderTemplate(body string, vars map[string]string) string {
	if len(vars) == 0 {
		return body
	}
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

type TemplateRepository interface {
	Create(ctx context.Context, t *model.Template) (*model.Template, error)
	Get(ctx context.Context, tenantID, id int64) (*model.Template, error)
	List(ctx context.Context, tenantID int64) ([]*model.Template, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type TemplateService struct {
	db    Transactor
	repo  TemplateRepository
	quota *quota.Service
	now   func() time.Time
}

func NewTemplateService(db Transactor, repo TemplateRepository, q *quota.Service) *TemplateService {
	return &TemplateService{
		db:    db,
		repo:  repo,
		quota: q,
		now:   time.Now,
	}
}

func (s *TemplateService) Create(ctx context.Context, req model.TemplateCreateRequest) (*model.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	tpl := &model.Template{
		TenantID:  req.TenantID,
		Name:      req.Name,
		Channel:   req.Channel,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created *model.Template
	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quota.CheckMonthlyResource(txCtx, req.TenantID, model.UsageTemplatesCreated); err != nil {
			return err
		}
		var err error
		created, err = s.repo.Create(txCtx, tpl)
		if err != nil {
			return err
		}
		return s.quota.IncrementMonthlyResource(txCtx, req.TenantID, model.UsageTemplatesCreated)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TemplateService) Get(ctx context.Context, tenantID, id int64) (*model.Template, error) {
	tpl, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tpl, nil
}

func (s *TemplateService) List(ctx context.Context, tenantID int64) ([]*model.Template, error) {
	return s.repo.List(ctx, tenantID)
}

func (s *TemplateService) Delete(ctx context.Context, tenantID, id int64) error {
	err := s.repo.Delete(ctx, tenantID, id)
	if errors.Is(err, repository.ErrTemplateNotFound) {
		return ErrNotFound
	}
	return err
}

// Preview renders a stored template with the supplied variables
// without sending anything.
func (s *TemplateService) Preview(ctx context.Context, tenantID, id int64, vars map[string]string) (string, error) {
	tpl, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	return RenderTemplate(tpl.Body, vars), nil
}
