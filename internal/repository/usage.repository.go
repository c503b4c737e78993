package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageRepository struct {
	*pg.DB
}

func NewUsageRepository(db *pg.DB) *UsageRepository {
	return &UsageRepository{
		db,
	}
}

// dailyChannelColumn maps a channel name to its counter column; the
// empty string means the channel only counts toward the total.
func dailyChannelColumn(channel string) string {
	switch strings.ToLower(strings.TrimSpace(channel)) {
	case "whatsapp":
		return "sends_whatsapp"
	case "x", "twitter":
		return "sends_x"
	case "email":
		return "sends_email"
	}
	return ""
}

func monthlyFieldColumn(field model.UsageField) (string, error) {
	switch field {
	case model.UsageAdsCreated, model.UsageTemplatesCreated, model.UsageLinksCreated, model.UsageInvitesCreated:
		return string(field), nil
	}
	return "", fmt.Errorf("unknown usage field: %s", field)
}

func (r *UsageRepository) ensureDailyRow(ctx context.Context, tenantID int64, day string, now time.Time) error {
	seed := &DailyUsageEntity{TenantID: tenantID, Day: day, CreatedAt: now, UpdatedAt: now}
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "day"}},
			DoNothing: true,
		}).
		Create(seed).
		Error
}

func (r *UsageRepository) ensureMonthlyRow(ctx context.Context, tenantID int64, month string, now time.Time) error {
	seed := &MonthlyUsageEntity{TenantID: tenantID, Month: month, CreatedAt: now, UpdatedAt: now}
	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "month"}},
			DoNothing: true,
		}).
		Create(seed).
		Error
}

// GetDaily returns the tenant's counters for a UTC day, creating the
// zeroed row on first access.
func (r *UsageRepository) GetDaily(ctx context.Context, tenantID int64, day string, now time.Time) (*model.DailyUsage, error) {
	if err := r.ensureDailyRow(ctx, tenantID, day, now); err != nil {
		return nil, err
	}
	var entity DailyUsageEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("tenant_id = ? AND day = ?", tenantID, day).
		First(&entity).
		Error
	if err != nil {
		return nil, err
	}
	return toDailyUsageModel(&entity), nil
}

// IncrementDaily adds amount to the total counter and to the matching
// channel counter in one statement. Counters only ever grow.
func (r *UsageRepository) IncrementDaily(ctx context.Context, tenantID int64, day, channel string, amount int, now time.Time) error {
	if err := r.ensureDailyRow(ctx, tenantID, day, now); err != nil {
		return err
	}

	updates := map[string]any{
		"sends_total": gorm.Expr("sends_total + ?", amount),
		"updated_at":  now,
	}
	if col := dailyChannelColumn(channel); col != "" {
		updates[col] = gorm.Expr(col+" + ?", amount)
	}

	return r.Write(ctx).WithContext(ctx).
		Model(&DailyUsageEntity{}).
		Where("tenant_id = ? AND day = ?", tenantID, day).
		Updates(updates).
		Error
}

// GetMonthly returns the tenant's resource counters for a UTC month,
// creating the zeroed row on first access.
func (r *UsageRepository) GetMonthly(ctx context.Context, tenantID int64, month string, now time.Time) (*model.MonthlyUsage, error) {
	if err := r.ensureMonthlyRow(ctx, tenantID, month, now); err != nil {
		return nil, err
	}
	var entity MonthlyUsageEntity
	err := r.Write(ctx).WithContext(ctx).
		Where("tenant_id = ? AND month = ?", tenantID, month).
		First(&entity).
		Error
	if err != nil {
		return nil, err
	}
	return toMonthlyUsageModel(&entity), nil
}

func (r *UsageRepository) IncrementMonthly(ctx context.Context, tenantID int64, month string, field model.UsageField, amount int, now time.Time) error {
	col, err := monthlyFieldColumn(field)
	if err != nil {
		return err
	}
	if err := r.ensureMonthlyRow(ctx, tenantID, month, now); err != nil {
		return err
	}
	return r.Write(ctx).WithContext(ctx).
		Model(&MonthlyUsageEntity{}).
		Where("tenant_id = ? AND month = ?", tenantID, month).
		Updates(map[string]any{
			col:          gorm.Expr(col+" + ?", amount),
			"updated_at": now,
		}).
		Error
}
