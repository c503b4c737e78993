package repository

import (
	"context"
	"errors"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSegmentNotFound = errors.New("segment not found")
)

type SegmentRepository struct {
	*pg.DB
}

func NewSegmentRepository(db *pg.DB) *SegmentRepository {
	return &SegmentRepository{
		db,
	}
}

func (r *SegmentRepository) Create(ctx context.Context, s *model.Segment) (*model.Segment, error) {
	entity := toSegmentEntity(s)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toSegmentModel(entity), nil
}

func (r *SegmentRepository) Get(ctx context.Context, tenantID, id int64) (*model.Segment, error) {
	var entity SegmentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSegmentNotFound
		}
		return nil, err
	}
	return toSegmentModel(&entity), nil
}

func (r *SegmentRepository) List(ctx context.Context, tenantID int64) ([]*model.Segment, error) {
	var entities []*SegmentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSegmentModels(entities), nil
}

func (r *SegmentRepository) Patch(ctx context.Context, tenantID, id int64, p model.SegmentPatch) (*model.Segment, error) {
	if p.Empty() {
		return r.Get(ctx, tenantID, id)
	}
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	res := r.Write(ctx).WithContext(ctx).Model(&SegmentEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrSegmentNotFound
	}
	return r.Get(ctx, tenantID, id)
}

func (r *SegmentRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&SegmentEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSegmentNotFound
	}
	return r.Write(ctx).WithContext(ctx).
		Where("segment_id = ?", id).
		Delete(&SegmentMemberEntity{}).
		Error
}

// AddMember verifies both sides belong to the tenant before linking.
// Adding an existing member succeeds without effect.
func (r *SegmentRepository) AddMember(ctx context.Context, tenantID, segmentID, contactID int64) error {
	if _, err := r.Get(ctx, tenantID, segmentID); err != nil {
		return err
	}
	var count int64
	err := r.Read(ctx).WithContext(ctx).Model(&ContactEntity{}).
		Where("id = ? AND tenant_id = ?", contactID, tenantID).
		Count(&count).
		Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrContactNotFound
	}
	entity := &SegmentMemberEntity{
		SegmentID: segmentID,
		ContactID: contactID,
		CreatedAt: time.Now().UTC(),
	}
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entity).
		Error
}

func (r *SegmentRepository) RemoveMember(ctx context.Context, tenantID, segmentID, contactID int64) error {
	if _, err := r.Get(ctx, tenantID, segmentID); err != nil {
		return err
	}
	return r.Write(ctx).WithContext(ctx).
		Where("segment_id = ? AND contact_id = ?", segmentID, contactID).
		Delete(&SegmentMemberEntity{}).
		Error
}

// Members lists the segment's contacts in insertion order.
func (r *SegmentRepository) Members(ctx context.Context, tenantID, segmentID int64) ([]*model.Contact, error) {
	if _, err := r.Get(ctx, tenantID, segmentID); err != nil {
		return nil, err
	}
	var entities []*ContactEntity
	err := r.Read(ctx).WithContext(ctx).Model(&ContactEntity{}).
		Joins("JOIN segment_members sm ON sm.contact_id = contacts.id").
		Where("sm.segment_id = ? AND contacts.tenant_id = ?", segmentID, tenantID).
		Order("contacts.id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toContactModels(entities), nil
}
