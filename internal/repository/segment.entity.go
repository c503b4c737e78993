package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type SegmentEntity struct {
	ID          int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	TenantID    int64     `db:"tenant_id"   gorm:"column:tenant_id;not null;index"`
	Name        string    `db:"name"        gorm:"column:name;not null"`
	Description string    `db:"description" gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time `db:"created_at"  gorm:"column:created_at"`
	UpdatedAt   time.Time `db:"updated_at"  gorm:"column:updated_at"`
}

func (SegmentEntity) TableName() string {
	return "segments"
}

// SegmentMemberEntity links a contact into a segment. The composite
// primary key makes repeated adds a no-op.
type SegmentMemberEntity struct {
	SegmentID int64     `db:"segment_id" gorm:"primaryKey;autoIncrement:false;column:segment_id"`
	ContactID int64     `db:"contact_id" gorm:"primaryKey;autoIncrement:false;column:contact_id"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at"`
}

func (SegmentMemberEntity) TableName() string {
	return "segment_members"
}

func toSegmentEntity(m *model.Segment) *SegmentEntity {
	if m == nil {
		return nil
	}
	return &SegmentEntity{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toSegmentModel(e *SegmentEntity) *model.Segment {
	if e == nil {
		return nil
	}
	return &model.Segment{
		ID:          e.ID,
		TenantID:    e.TenantID,
		Name:        e.Name,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toSegmentModels(entities []*SegmentEntity) []*model.Segment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Segment, len(entities))
	for i, e := range entities {
		models[i] = toSegmentModel(e)
	}
	return models
}
