package model

import (
	"errors"
	"time"
)

// DeliveryStatus is the lifecycle state of a queued delivery.
type DeliveryStatus string

const (
	DeliveryStatusQueued   DeliveryStatus = "queued"
	DeliveryStatusSending  DeliveryStatus = "sending"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
	DeliveryStatusSent     DeliveryStatus = "sent"
	DeliveryStatusFailed   DeliveryStatus = "failed"
)

// Terminal reports whether a delivery in this status can never be
// picked up by the worker again.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryStatusSent || s == DeliveryStatusFailed
}

// DefaultMaxAttempts is the attempt ceiling applied when an enqueue
// request does not set one.
const DefaultMaxAttempts = 5

type Delivery struct {
	ID             int64          `json:"id"`
	TenantID       int64          `json:"tenant_id"`
	CampaignID     *int64         `json:"campaign_id,omitempty"`
	Channel        string         `json:"channel"`
	ToAddr         string         `json:"to_addr"`
	Payload        map[string]any `json:"payload,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
	Status         DeliveryStatus `json:"status"`
	Attempts       int            `json:"attempts"`
	MaxAttempts    int            `json:"max_attempts"`
	NextAttemptAt  *time.Time     `json:"next_attempt_at,omitempty"`
	LastError      *string        `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DeliveryEnqueueRequest is the input for enqueueing a delivery.
// IdempotencyKey may be empty; the service generates one in that case.
type DeliveryEnqueueRequest struct {
	TenantID       int64
	CampaignID     *int64
	Channel        string
	ToAddr         string
	Payload        map[string]any
	IdempotencyKey string
	MaxAttempts    int
	ScheduledAt    *time.Time // delays the first attempt when set
}

func (r DeliveryEnqueueRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Channel == "" {
		return errors.New("channel is required")
	}
	if r.ToAddr == "" {
		return errors.New("to_addr is required")
	}
	return nil
}

// DeliveryFilter controls List queries. Results are always scoped to a
// tenant and ordered by id descending.
type DeliveryFilter struct {
	Status     *DeliveryStatus
	CampaignID *int64
	Limit      int // default 50, max 200
	Offset     int
}

// WorkerReport summarizes one ProcessBatch invocation.
type WorkerReport struct {
	Processed int       `json:"processed"`
	Sent      int       `json:"sent"`
	Retried   int       `json:"retried"`
	Failed    int       `json:"failed"`
	Ts        time.Time `json:"ts"`
}

// SLAReport is the read-side aggregation over a trailing window of days.
type SLAReport struct {
	Days        int     `json:"days"`
	Total       int64   `json:"total"`
	Sent        int64   `json:"sent"`
	Failed      int64   `json:"failed"`
	Retrying    int64   `json:"retrying"`
	Queued      int64   `json:"queued"`
	Sending     int64   `json:"sending"`
	AvgAttempts float64 `json:"avg_attempts"`
	AvgTimeSec  float64 `json:"avg_time_sec"`
	FailureRate float64 `json:"failure_rate"`
}
