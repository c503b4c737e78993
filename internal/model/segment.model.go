package model

import (
	"errors"
	"time"
)

type Segment struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SegmentCreateRequest struct {
	TenantID    int64
	Name        string
	Description string
}

func (r SegmentCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type SegmentPatch struct {
	Name        *string
	Description *string
}

func (p SegmentPatch) Empty() bool { return p.Name == nil && p.Description == nil }

// SegmentBroadcastRequest fans a rendered message out to every contact
// of a segment as individual queue entries.
type SegmentBroadcastRequest struct {
	TenantID   int64
	SegmentID  int64
	CampaignID *int64
	TemplateID *int64
	Channel    string
	Body       string
	Variables  map[string]string
}

func (r SegmentBroadcastRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.SegmentID == 0 {
		return errors.New("segment_id is required")
	}
	if r.Channel == "" {
		return errors.New("channel is required")
	}
	if r.TemplateID == nil && r.Body == "" {
		return errors.New("body or template_id is required")
	}
	return nil
}

// SegmentBroadcastResult reports a fan-out: queued entries, contacts
// skipped for lacking an address, and whether quota cut the run short.
type SegmentBroadcastResult struct {
	Queued  int `json:"queued"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}
