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
	// ErrDeliveryNotFound is returned when a delivery does not exist
	// within the tenant scope.
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrNotEligible is returned by Claim when the row is no longer a
	// worker candidate: another worker claimed it first, it reached a
	// terminal state, or its next attempt lies in the future.
	ErrNotEligible = errors.New("delivery not eligible for claim")
)

type DeliveryRepository struct {
	*pg.DB
}

func NewDeliveryRepository(db *pg.DB) *DeliveryRepository {
	return &DeliveryRepository{
		db,
	}
}

// Enqueue inserts a new queued delivery. The (tenant_id, idempotency_key)
// unique index makes re-submission a no-op: when the insert hits the
// conflict path, the existing row is returned and created is false.
// The quota counter must only be incremented when created is true.
func (r *DeliveryRepository) Enqueue(ctx context.Context, d *model.Delivery) (*model.Delivery, bool, error) {
	entity := toDeliveryEntity(d)

	res := r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(entity)
	if res.Error != nil {
		return nil, false, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.GetByIdempotencyKey(ctx, d.TenantID, d.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return toDeliveryModel(entity), true, nil
}

func (r *DeliveryRepository) Get(ctx context.Context, tenantID, id int64) (*model.Delivery, error) {
	var entity DeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return toDeliveryModel(&entity), nil
}

func (r *DeliveryRepository) GetByIdempotencyKey(ctx context.Context, tenantID int64, key string) (*model.Delivery, error) {
	var entity DeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNotFound
		}
		return nil, err
	}
	return toDeliveryModel(&entity), nil
}

// List returns tenant-scoped deliveries ordered by id descending.
func (r *DeliveryRepository) List(ctx context.Context, tenantID int64, f model.DeliveryFilter) ([]*model.Delivery, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&DeliveryEntity{}).
		Where("tenant_id = ?", tenantID)

	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.CampaignID != nil {
		q = q.Where("campaign_id = ?", *f.CampaignID)
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

	var entities []*DeliveryEntity
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toDeliveryModels(entities), total, nil
}

// SelectEligible returns up to limit worker candidates in ascending id
// order: status queued or retrying, with next_attempt_at unset or due.
// This is only a snapshot; eligibility is re-checked under lock by
// Claim before any state changes.
func (r *DeliveryRepository) SelectEligible(ctx context.Context, now time.Time, limit int) ([]*model.Delivery, error) {
	var entities []*DeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("status IN ?", []string{string(model.DeliveryStatusQueued), string(model.DeliveryStatusRetrying)}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		Order("id ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toDeliveryModels(entities), nil
}

// Claim flips an eligible row to sending and increments attempts. It
// must run inside a transaction (pg.WithinTransaction); the row lock
// plus the re-checked predicate guarantee that two workers racing on
// the same row settle on a single winner.
func (r *DeliveryRepository) Claim(ctx context.Context, id int64, now time.Time) (*model.Delivery, error) {
	var entity DeliveryEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Where("status IN ?", []string{string(model.DeliveryStatusQueued), string(model.DeliveryStatusRetrying)}).
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEligible
		}
		return nil, err
	}

	res := r.Write(ctx).WithContext(ctx).
		Model(&DeliveryEntity{}).
		Where("id = ? AND status = ?", id, entity.Status).
		Updates(map[string]any{
			"status":     string(model.DeliveryStatusSending),
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotEligible
	}

	entity.Status = string(model.DeliveryStatusSending)
	entity.Attempts++
	entity.UpdatedAt = now
	return toDeliveryModel(&entity), nil
}

// MarkSent completes a sending row. Clears last_error and next_attempt_at.
func (r *DeliveryRepository) MarkSent(ctx context.Context, id int64, now time.Time) error {
	return r.transition(ctx, id, map[string]any{
		"status":          string(model.DeliveryStatusSent),
		"last_error":      nil,
		"next_attempt_at": nil,
		"updated_at":      now,
	})
}

// MarkRetrying parks a sending row until nextAttemptAt.
func (r *DeliveryRepository) MarkRetrying(ctx context.Context, id int64, lastError string, nextAttemptAt, now time.Time) error {
	return r.transition(ctx, id, map[string]any{
		"status":          string(model.DeliveryStatusRetrying),
		"last_error":      lastError,
		"next_attempt_at": nextAttemptAt,
		"updated_at":      now,
	})
}

// MarkFailed dead-letters a sending row. The row is kept for
// inspection and never selected again.
func (r *DeliveryRepository) MarkFailed(ctx context.Context, id int64, lastError string, now time.Time) error {
	return r.transition(ctx, id, map[string]any{
		"status":          string(model.DeliveryStatusFailed),
		"last_error":      lastError,
		"next_attempt_at": nil,
		"updated_at":      now,
	})
}

// transition applies a resolve update to a row currently in sending.
// Guarding on the sending status makes terminal assignment exactly-once.
func (r *DeliveryRepository) transition(ctx context.Context, id int64, updates map[string]any) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&DeliveryEntity{}).
		Where("id = ? AND status = ?", id, string(model.DeliveryStatusSending)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotEligible
	}
	return nil
}

// CampaignWindow counts deliveries per campaign and status created on
// or after start. Campaign names are filled in by the caller;
// deliveries without a campaign share a single nil-id point.
func (r *DeliveryRepository) CampaignWindow(ctx context.Context, tenantID int64, start time.Time) ([]*model.CampaignDeliveryPoint, error) {
	var entities []*DeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("campaign_id", "status").
		Where("tenant_id = ? AND created_at >= ?", tenantID, start).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	byCampaign := make(map[int64]*model.CampaignDeliveryPoint)
	for _, e := range entities {
		var key int64
		if e.CampaignID != nil {
			key = *e.CampaignID
		}
		point, ok := byCampaign[key]
		if !ok {
			point = &model.CampaignDeliveryPoint{CampaignID: e.CampaignID}
			byCampaign[key] = point
		}
		point.Total++
		switch model.DeliveryStatus(e.Status) {
		case model.DeliveryStatusSent:
			point.Sent++
		case model.DeliveryStatusFailed:
			point.Failed++
		case model.DeliveryStatusRetrying:
			point.Retrying++
		case model.DeliveryStatusQueued:
			point.Queued++
		case model.DeliveryStatusSending:
			point.Sending++
		}
	}

	points := make([]*model.CampaignDeliveryPoint, 0, len(byCampaign))
	for _, p := range byCampaign {
		points = append(points, p)
	}
	return points, nil
}

// SLAWindow aggregates deliveries created on or after startDay for the
// dashboard: counts per status, average attempts, average seconds from
// creation to a terminal state, and the failure rate.
func (r *DeliveryRepository) SLAWindow(ctx context.Context, tenantID int64, startDay time.Time, days int) (*model.SLAReport, error) {
	var entities []*DeliveryEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("status", "attempts", "created_at", "updated_at").
		Where("tenant_id = ? AND created_at >= ?", tenantID, startDay).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}

	report := &model.SLAReport{Days: days, Total: int64(len(entities))}
	var attemptsSum int64
	var timeSum float64
	var timeCount int64

	for _, e := range entities {
		attemptsSum += int64(e.Attempts)
		switch model.DeliveryStatus(e.Status) {
		case model.DeliveryStatusSent:
			report.Sent++
		case model.DeliveryStatusFailed:
			report.Failed++
		case model.DeliveryStatusRetrying:
			report.Retrying++
		case model.DeliveryStatusQueued:
			report.Queued++
		case model.DeliveryStatusSending:
			report.Sending++
		}
		if model.DeliveryStatus(e.Status).Terminal() {
			delta := e.UpdatedAt.Sub(e.CreatedAt).Seconds()
			if delta < 0 {
				delta = 0
			}
			timeSum += delta
			timeCount++
		}
	}

	if report.Total > 0 {
		report.AvgAttempts = float64(attemptsSum) / float64(report.Total)
		report.FailureRate = float64(report.Failed) / float64(report.Total)
	}
	if timeCount > 0 {
		report.AvgTimeSec = timeSum / float64(timeCount)
	}
	return report, nil
}
