package repository

import (
	"encoding/json"
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type DeliveryEntity struct {
	ID             int64      `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	TenantID       int64      `db:"tenant_id"       gorm:"column:tenant_id;not null;index;uniqueIndex:idx_deliveries_tenant_idem,priority:1"`
	CampaignID     *int64     `db:"campaign_id"     gorm:"column:campaign_id;index"`
	Channel        string     `db:"channel"         gorm:"column:channel;not null"`
	ToAddr         string     `db:"to_addr"         gorm:"column:to_addr;not null"`
	PayloadJSON    string     `db:"payload_json"    gorm:"column:payload_json;not null;default:'{}'"`
	IdempotencyKey string     `db:"idempotency_key" gorm:"column:idempotency_key;not null;uniqueIndex:idx_deliveries_tenant_idem,priority:2"`
	Status         string     `db:"status"          gorm:"column:status;not null;default:'queued';index:idx_deliveries_ready,priority:1"`
	Attempts       int        `db:"attempts"        gorm:"column:attempts;not null;default:0"`
	MaxAttempts    int        `db:"max_attempts"    gorm:"column:max_attempts;not null;default:5"`
	NextAttemptAt  *time.Time `db:"next_attempt_at" gorm:"column:next_attempt_at;index:idx_deliveries_ready,priority:2"`
	LastError      *string    `db:"last_error"      gorm:"column:last_error"`
	CreatedAt      time.Time  `db:"created_at"      gorm:"column:created_at"`
	UpdatedAt      time.Time  `db:"updated_at"      gorm:"column:updated_at"`
}

func (DeliveryEntity) TableName() string {
	return "deliveries"
}

func toDeliveryEntity(m *model.Delivery) *DeliveryEntity {
	if m == nil {
		return nil
	}
	payload := "{}"
	if m.Payload != nil {
		if b, err := json.Marshal(m.Payload); err == nil {
			payload = string(b)
		}
	}
	return &DeliveryEntity{
		ID:             m.ID,
		TenantID:       m.TenantID,
		CampaignID:     m.CampaignID,
		Channel:        m.Channel,
		ToAddr:         m.ToAddr,
		PayloadJSON:    payload,
		IdempotencyKey: m.IdempotencyKey,
		Status:         string(m.Status),
		Attempts:       m.Attempts,
		MaxAttempts:    m.MaxAttempts,
		NextAttemptAt:  m.NextAttemptAt,
		LastError:      m.LastError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toDeliveryModel(e *DeliveryEntity) *model.Delivery {
	if e == nil {
		return nil
	}
	var payload map[string]any
	if e.PayloadJSON != "" {
		// A row with corrupt payload JSON still surfaces; the payload
		// is opaque to everything but the send itself.
		_ = json.Unmarshal([]byte(e.PayloadJSON), &payload)
	}
	return &model.Delivery{
		ID:             e.ID,
		TenantID:       e.TenantID,
		CampaignID:     e.CampaignID,
		Channel:        e.Channel,
		ToAddr:         e.ToAddr,
		Payload:        payload,
		IdempotencyKey: e.IdempotencyKey,
		Status:         model.DeliveryStatus(e.Status),
		Attempts:       e.Attempts,
		MaxAttempts:    e.MaxAttempts,
		NextAttemptAt:  e.NextAttemptAt,
		LastError:      e.LastError,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toDeliveryModels(entities []*DeliveryEntity) []*model.Delivery {
	if entities == nil {
		return nil
	}
	models := make([]*model.Delivery, len(entities))
	for i, e := range entities {
		models[i] = toDeliveryModel(e)
	}
	return models
}
