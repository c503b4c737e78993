package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type TenantPlanEntity struct {
	TenantID  int64     `db:"tenant_id"  gorm:"primaryKey;column:tenant_id"`
	Plan      string    `db:"plan"       gorm:"column:plan;not null;default:'free'"`
	Status    string    `db:"status"     gorm:"column:status;not null;default:'active'"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (TenantPlanEntity) TableName() string {
	return "tenant_plans"
}

func toTenantPlanModel(e *TenantPlanEntity) *model.TenantPlan {
	if e == nil {
		return nil
	}
	return &model.TenantPlan{
		TenantID: e.TenantID,
		Plan:     e.Plan,
		Status:   e.Status,
	}
}
