package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type AdEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	TenantID    int64      `db:"tenant_id"    gorm:"column:tenant_id;not null;index"`
	CampaignID  *int64     `db:"campaign_id"  gorm:"column:campaign_id;index"`
	Title       string     `db:"title"        gorm:"column:title;not null"`
	Body        string     `db:"body"         gorm:"column:body;not null;default:''"`
	Channel     string     `db:"channel"      gorm:"column:channel;not null"`
	Status      string     `db:"status"       gorm:"column:status;not null;default:'draft';index:idx_ads_due,priority:1"`
	ScheduledAt *time.Time `db:"scheduled_at" gorm:"column:scheduled_at;index:idx_ads_due,priority:2"`
	CreatedAt   time.Time  `db:"created_at"   gorm:"column:created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   gorm:"column:updated_at"`
}

func (AdEntity) TableName() string {
	return "ads"
}

func toAdEntity(m *model.Ad) *AdEntity {
	if m == nil {
		return nil
	}
	return &AdEntity{
		ID:          m.ID,
		TenantID:    m.TenantID,
		CampaignID:  m.CampaignID,
		Title:       m.Title,
		Body:        m.Body,
		Channel:     m.Channel,
		Status:      string(m.Status),
		ScheduledAt: m.ScheduledAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toAdModel(e *AdEntity) *model.Ad {
	if e == nil {
		return nil
	}
	return &model.Ad{
		ID:          e.ID,
		TenantID:    e.TenantID,
		CampaignID:  e.CampaignID,
		Title:       e.Title,
		Body:        e.Body,
		Channel:     e.Channel,
		Status:      model.AdStatus(e.Status),
		ScheduledAt: e.ScheduledAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toAdModels(entities []*AdEntity) []*model.Ad {
	if entities == nil {
		return nil
	}
	models := make([]*model.Ad, len(entities))
	for i, e := range entities {
		models[i] = toAdModel(e)
	}
	return models
}

type AdDeliveryNoteEntity struct {
	ID          int64     `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	AdID        int64     `db:"ad_id"        gorm:"column:ad_id;not null;index"`
	DeliveredAt time.Time `db:"delivered_at" gorm:"column:delivered_at;not null"`
	Result      string    `db:"result"       gorm:"column:result;not null"`
	Details     string    `db:"details"      gorm:"column:details;not null;default:''"`
}

func (AdDeliveryNoteEntity) TableName() string {
	return "ad_deliveries"
}

func toAdDeliveryNoteModel(e *AdDeliveryNoteEntity) *model.AdDeliveryNote {
	if e == nil {
		return nil
	}
	return &model.AdDeliveryNote{
		ID:          e.ID,
		AdID:        e.AdID,
		DeliveredAt: e.DeliveredAt,
		Result:      e.Result,
		Details:     e.Details,
	}
}
