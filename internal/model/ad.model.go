package model

import (
	"errors"
	"time"
)

// AdStatus is the lifecycle state of an ad.
type AdStatus string

const (
	AdStatusDraft     AdStatus = "draft"
	AdStatusScheduled AdStatus = "scheduled"
	AdStatusSent      AdStatus = "sent"
)

type Ad struct {
	ID          int64      `json:"id"`
	TenantID    int64      `json:"tenant_id"`
	CampaignID  *int64     `json:"campaign_id,omitempty"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Channel     string     `json:"channel"`
	Status      AdStatus   `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AdCreateRequest struct {
	TenantID   int64
	CampaignID *int64
	Title      string
	Body       string
	Channel    string
}

func (r AdCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Channel == "" {
		return errors.New("channel is required")
	}
	return nil
}

// AdPatch carries a partial update. Nil fields were not provided and
// must be left untouched; CampaignID distinguishes "absent" (nil) from
// an explicit null (pointer to nil).
type AdPatch struct {
	Title      *string
	Body       *string
	Channel    *string
	CampaignID **int64
}

func (p AdPatch) Empty() bool {
	return p.Title == nil && p.Body == nil && p.Channel == nil && p.CampaignID == nil
}

type AdFilter struct {
	Status *AdStatus
	Limit  int
	Offset int
}

// AdDeliveryNote records one promoter decision for a scheduled ad.
type AdDeliveryNote struct {
	ID          int64     `json:"id"`
	AdID        int64     `json:"ad_id"`
	DeliveredAt time.Time `json:"delivered_at"`
	Result      string    `json:"result"` // "ok" | "fail"
	Details     string    `json:"details"`
}
