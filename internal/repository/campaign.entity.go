package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type CampaignEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	TenantID  int64     `db:"tenant_id"  gorm:"column:tenant_id;not null;index"`
	Name      string    `db:"name"       gorm:"column:name;not null"`
	Objective string    `db:"objective"  gorm:"column:objective;not null;default:''"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (CampaignEntity) TableName() string {
	return "campaigns"
}

func toCampaignEntity(m *model.Campaign) *CampaignEntity {
	if m == nil {
		return nil
	}
	return &CampaignEntity{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Objective: m.Objective,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toCampaignModel(e *CampaignEntity) *model.Campaign {
	if e == nil {
		return nil
	}
	return &model.Campaign{
		ID:        e.ID,
		TenantID:  e.TenantID,
		Name:      e.Name,
		Objective: e.Objective,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toCampaignModels(entities []*CampaignEntity) []*model.Campaign {
	if entities == nil {
		return nil
	}
	models := make([]*model.Campaign, len(entities))
	for i, e := range entities {
		models[i] = toCampaignModel(e)
	}
	return models
}
