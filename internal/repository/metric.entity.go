package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type MetricEventEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	TenantID  int64     `db:"tenant_id"  gorm:"column:tenant_id;not null;index:idx_metric_tenant_type,priority:1;index:idx_metric_tenant_day,priority:1"`
	AdID      *int64    `db:"ad_id"      gorm:"column:ad_id"`
	LinkID    *int64    `db:"link_id"    gorm:"column:link_id"`
	EventType string    `db:"event_type" gorm:"column:event_type;not null;index:idx_metric_tenant_type,priority:2"`
	Value     int64     `db:"value"      gorm:"column:value;not null;default:1"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;index:idx_metric_tenant_day,priority:2"`
}

func (MetricEventEntity) TableName() string {
	return "metric_events"
}

func toMetricEventEntity(m *model.MetricEvent) *MetricEventEntity {
	if m == nil {
		return nil
	}
	return &MetricEventEntity{
		ID:        m.ID,
		TenantID:  m.TenantID,
		AdID:      m.AdID,
		LinkID:    m.LinkID,
		EventType: string(m.EventType),
		Value:     m.Value,
		CreatedAt: m.CreatedAt,
	}
}

func toMetricEventModel(e *MetricEventEntity) *model.MetricEvent {
	if e == nil {
		return nil
	}
	return &model.MetricEvent{
		ID:        e.ID,
		TenantID:  e.TenantID,
		AdID:      e.AdID,
		LinkID:    e.LinkID,
		EventType: model.MetricEventType(e.EventType),
		Value:     e.Value,
		CreatedAt: e.CreatedAt,
	}
}

func toMetricEventModels(entities []*MetricEventEntity) []*model.MetricEvent {
	if entities == nil {
		return nil
	}
	models := make([]*model.MetricEvent, len(entities))
	for i, e := range entities {
		models[i] = toMetricEventModel(e)
	}
	return models
}
