package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type ShortLinkEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	TenantID   int64     `db:"tenant_id"   gorm:"column:tenant_id;not null;index"`
	AdID       *int64    `db:"ad_id"       gorm:"column:ad_id"`
	Slug       string    `db:"slug"        gorm:"column:slug;not null;uniqueIndex:idx_short_links_slug"`
	TargetURL  string    `db:"target_url"  gorm:"column:target_url;not null"`
	Clicks     int64     `db:"clicks"      gorm:"column:clicks;not null;default:0"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at"`
	UpdatedAt  time.Time `db:"updated_at"  gorm:"column:updated_at"`
}

func (ShortLinkEntity) TableName() string {
	return "short_links"
}

func toShortLinkEntity(m *model.ShortLink) *ShortLinkEntity {
	if m == nil {
		return nil
	}
	return &ShortLinkEntity{
		ID:         m.ID,
		TenantID:   m.TenantID,
		AdID:       m.AdID,
		Slug:       m.Slug,
		TargetURL:  m.TargetURL,
		Clicks:     m.Clicks,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toShortLinkModel(e *ShortLinkEntity) *model.ShortLink {
	if e == nil {
		return nil
	}
	return &model.ShortLink{
		ID:         e.ID,
		TenantID:   e.TenantID,
		AdID:       e.AdID,
		Slug:       e.Slug,
		TargetURL:  e.TargetURL,
		Clicks:     e.Clicks,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toShortLinkModels(entities []*ShortLinkEntity) []*model.ShortLink {
	if entities == nil {
		return nil
	}
	models := make([]*model.ShortLink, len(entities))
	for i, e := range entities {
		models[i] = toShortLinkModel(e)
	}
	return models
}
