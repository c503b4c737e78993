package repository

import (
	"context"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
)

type MetricEventRepository struct {
	*pg.DB
}

func NewMetricEventRepository(db *pg.DB) *MetricEventRepository {
	return &MetricEventRepository{
		db,
	}
}

func (r *MetricEventRepository) Record(ctx context.Context, ev *model.MetricEvent) error {
	entity := toMetricEventEntity(ev)
	if entity.Value == 0 {
		entity.Value = 1
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return err
	}
	ev.ID = entity.ID
	return nil
}

// SumByType totals the value column for one event type across the
// tenant's full history.
func (r *MetricEventRepository) SumByType(ctx context.Context, tenantID int64, eventType model.MetricEventType) (int64, error) {
	var total int64
	err := r.Read(ctx).WithContext(ctx).Model(&MetricEventEntity{}).
		Select("COALESCE(SUM(value), 0)").
		Where("tenant_id = ? AND event_type = ?", tenantID, eventType).
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Window loads the tenant's events created on or after start, oldest
// first. Aggregation happens in the service so channel and campaign
// attribution can be joined in.
func (r *MetricEventRepository) Window(ctx context.Context, tenantID int64, start time.Time) ([]*model.MetricEvent, error) {
	var entities []*MetricEventEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ? AND created_at >= ?", tenantID, start).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toMetricEventModels(entities), nil
}
