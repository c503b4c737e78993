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
	ErrAdNotFound = errors.New("ad not found")
)

type AdRepository struct {
	*pg.DB
}

func NewAdRepository(db *pg.DB) *AdRepository {
	return &AdRepository{
		db,
	}
}

func (r *AdRepository) Create(ctx context.Context, ad *model.Ad) (*model.Ad, error) {
	entity := toAdEntity(ad)
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toAdModel(entity), nil
}

func (r *AdRepository) Get(ctx context.Context, tenantID, id int64) (*model.Ad, error) {
	var entity AdEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return toAdModel(&entity), nil
}

// ByIDs loads the tenant's ads with the given ids, for attribution
// lookups. Missing ids are simply absent from the result.
func (r *AdRepository) ByIDs(ctx context.Context, tenantID int64, ids []int64) ([]*model.Ad, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var entities []*AdEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toAdModels(entities), nil
}

func (r *AdRepository) List(ctx context.Context, tenantID int64, f model.AdFilter) ([]*model.Ad, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&AdEntity{}).
		Where("tenant_id = ?", tenantID)
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*AdEntity
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toAdModels(entities), total, nil
}

// Patch applies only the fields present in p. A present-but-nil
// CampaignID clears the association.
func (r *AdRepository) Patch(ctx context.Context, tenantID, id int64, p model.AdPatch, now time.Time) (*model.Ad, error) {
	updates := map[string]any{"updated_at": now}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Body != nil {
		updates["body"] = *p.Body
	}
	if p.Channel != nil {
		updates["channel"] = *p.Channel
	}
	if p.CampaignID != nil {
		updates["campaign_id"] = *p.CampaignID
	}

	res := r.Write(ctx).WithContext(ctx).
		Model(&AdEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAdNotFound
	}
	return r.Get(ctx, tenantID, id)
}

func (r *AdRepository) Delete(ctx context.Context, tenantID, id int64) error {
	res := r.Write(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&AdEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdNotFound
	}
	return nil
}

// Schedule moves an ad into the scheduled state with a due time.
func (r *AdRepository) Schedule(ctx context.Context, tenantID, id int64, scheduledAt, now time.Time) (*model.Ad, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&AdEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]any{
			"status":       string(model.AdStatusScheduled),
			"scheduled_at": scheduledAt,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAdNotFound
	}
	return r.Get(ctx, tenantID, id)
}

// SelectDue returns scheduled ads whose due time has passed, across
// all tenants, in ascending id order.
func (r *AdRepository) SelectDue(ctx context.Context, now time.Time) ([]*model.Ad, error) {
	var entities []*AdEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", string(model.AdStatusScheduled), now).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toAdModels(entities), nil
}

// MarkSentIfScheduled promotes a scheduled ad to sent. Returns false
// when the ad was no longer scheduled, which makes the promoter
// idempotent under overlapping runs.
func (r *AdRepository) MarkSentIfScheduled(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&AdEntity{}).
		Where("id = ? AND status = ?", id, string(model.AdStatusScheduled)).
		Updates(map[string]any{
			"status":     string(model.AdStatusSent),
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddDeliveryNote records a promoter decision for an ad.
func (r *AdRepository) AddDeliveryNote(ctx context.Context, adID int64, result, details string, at time.Time) error {
	entity := &AdDeliveryNoteEntity{
		AdID:        adID,
		DeliveredAt: at,
		Result:      result,
		Details:     details,
	}
	return r.Write(ctx).WithContext(ctx).Create(entity).Error
}

// ListDeliveryNotes returns the notes for one ad, newest first. The ad
// must belong to the tenant.
func (r *AdRepository) ListDeliveryNotes(ctx context.Context, tenantID, adID int64) ([]*model.AdDeliveryNote, error) {
	if _, err := r.Get(ctx, tenantID, adID); err != nil {
		return nil, err
	}
	var entities []*AdDeliveryNoteEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("ad_id = ?", adID).
		Order("id DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	notes := make([]*model.AdDeliveryNote, len(entities))
	for i, e := range entities {
		notes[i] = toAdDeliveryNoteModel(e)
	}
	return notes, nil
}
