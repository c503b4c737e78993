package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
	"github.com/admux/ad-gateway/pkg/pg"
	"github.com/admux/ad-gateway/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.DeliveryEntity{},
		&repository.TenantPlanEntity{},
		&repository.DailyUsageEntity{},
		&repository.MonthlyUsageEntity{},
		&repository.AdEntity{},
		&repository.AdDeliveryNoteEntity{},
		&repository.CampaignEntity{},
		&repository.ContactEntity{},
		&repository.SegmentEntity{},
		&repository.SegmentMemberEntity{},
		&repository.TemplateEntity{},
		&repository.ShortLinkEntity{},
		&repository.MetricEventEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func SetTenantPlan(t *testing.T, db *pg.DB, tenantID int64, plan, status string) {
	ctx := context.Background()
	err := repository.NewPlanRepository(db).Set(ctx, tenantID, plan, status, time.Now().UTC())
	require.NoError(t, err)
}

func CreateTestCampaign(t *testing.T, db *pg.DB, tenantID int64, name string) *model.Campaign {
	ctx := context.Background()
	now := time.Now().UTC()
	c, err := repository.NewCampaignRepository(db).Create(ctx, &model.Campaign{
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return c
}

func CreateTestContact(t *testing.T, db *pg.DB, tenantID int64, name, email, phone string) *model.Contact {
	ctx := context.Background()
	now := time.Now().UTC()
	c, err := repository.NewContactRepository(db).Create(ctx, &model.Contact{
		TenantID:  tenantID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return c
}

func EnqueueTestDelivery(t *testing.T, db *pg.DB, tenantID int64, channel, toAddr string) *model.Delivery {
	ctx := context.Background()
	now := time.Now().UTC()
	d, created, err := repository.NewDeliveryRepository(db).Enqueue(ctx, &model.Delivery{
		TenantID:       tenantID,
		Channel:        channel,
		ToAddr:         toAddr,
		Payload:        map[string]any{"body": "test"},
		IdempotencyKey: RandomIdempotencyKey(),
		Status:         model.DeliveryStatusQueued,
		MaxAttempts:    model.DefaultMaxAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	require.True(t, created)
	return d
}

func RandomIdempotencyKey() string {
	return uuid.NewString()
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
