package repository

import (
	"context"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	*pg.DB
}

func NewPlanRepository(db *pg.DB) *PlanRepository {
	return &PlanRepository{
		db,
	}
}

// Get returns the tenant's plan row, lazily creating a free/active one
// on first access so every tenant always resolves to a plan.
func (r *PlanRepository) Get(ctx context.Context, tenantID int64, now time.Time) (*model.TenantPlan, error) {
	seed := &TenantPlanEntity{
		TenantID:  tenantID,
		Plan:      model.PlanFree,
		Status:    model.PlanStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoNothing: true,
		}).
		Create(seed).
		Error
	if err != nil {
		return nil, err
	}

	var entity TenantPlanEntity
	err = r.Write(ctx).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&entity).
		Error
	if err != nil {
		return nil, err
	}
	return toTenantPlanModel(&entity), nil
}

// Set updates the tenant's plan and subscription status, creating the
// row if needed. Used by the billing webhook surface.
func (r *PlanRepository) Set(ctx context.Context, tenantID int64, plan, status string, now time.Time) error {
	entity := &TenantPlanEntity{
		TenantID:  tenantID,
		Plan:      plan,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.Assignments(map[string]any{"plan": plan, "status": status, "updated_at": now}),
		}).
		Create(entity).
		Error
}
