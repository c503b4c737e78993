package model

import (
	"errors"
	"strings"
	"time"
)

type ShortLink struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	AdID       *int64    `json:"ad_id,omitempty"`
	Slug       string    `json:"slug"`
	TargetURL  string    `json:"target_url"`
	Clicks     int64     `json:"clicks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ShortLinkCreateRequest struct {
	TenantID  int64
	AdID      *int64
	TargetURL string
	Slug      string // optional; generated when empty
}

func (r ShortLinkCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	u := strings.TrimSpace(r.TargetURL)
	if u == "" {
		return errors.New("target_url is required")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return errors.New("target_url must be http(s)")
	}
	return nil
}
