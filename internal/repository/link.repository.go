package repository

import (
	"context"
	"errors"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrShortLinkNotFound = errors.New("short link not found")
	ErrSlugTaken         = errors.New("slug already in use")
)

type ShortLinkRepository struct {
	*pg.DB
}

func NewShortLinkRepository(db *pg.DB) *ShortLinkRepository {
	return &ShortLinkRepository{
		db,
	}
}

func (r *ShortLinkRepository) Create(ctx context.Context, l *model.ShortLink) (*model.ShortLink, error) {
	var count int64
	err := r.Write(ctx).WithContext(ctx).Model(&ShortLinkEntity{}).
		Where("slug = ?", l.Slug).
		Count(&count).
		Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}
	entity := toShortLinkEntity(l)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toShortLinkModel(entity), nil
}

func (r *ShortLinkRepository) Get(ctx context.Context, tenantID, id int64) (*model.ShortLink, error) {
	var entity ShortLinkEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return toShortLinkModel(&entity), nil
}

func (r *ShortLinkRepository) List(ctx context.Context, tenantID int64) ([]*model.ShortLink, error) {
	var entities []*ShortLinkEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toShortLinkModels(entities), nil
}

// BySlug looks a link up by slug across all tenants without touching
// the click counter.
func (r *ShortLinkRepository) BySlug(ctx context.Context, slug string) (*model.ShortLink, error) {
	var entity ShortLinkEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	return toShortLinkModel(&entity), nil
}

// Resolve looks a link up by slug across all tenants and bumps its
// click counter atomically. Redirects are public.
func (r *ShortLinkRepository) Resolve(ctx context.Context, slug string) (*model.ShortLink, error) {
	var entity ShortLinkEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("slug = ?", slug).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShortLinkNotFound
		}
		return nil, err
	}
	err = r.Write(ctx).WithContext(ctx).Model(&ShortLinkEntity{}).
		Where("id = ?", entity.ID).
		Updates(map[string]interface{}{
			"clicks":     gorm.Expr("clicks + 1"),
			"updated_at": time.Now().UTC(),
		}).
		Error
	if err != nil {
		return nil, err
	}
	entity.Clicks++
	return toShortLinkModel(&entity), nil
}

func (r *ShortLinkRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&ShortLinkEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrShortLinkNotFound
	}
	return nil
}
