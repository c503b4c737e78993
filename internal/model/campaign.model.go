package model

import (
	"errors"
	"time"
)

type Campaign struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Objective string    `json:"objective,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CampaignCreateRequest struct {
	TenantID  int64
	Name      string
	Objective string
}

func (r CampaignCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// CampaignPatch carries a partial update; nil fields stay untouched.
type CampaignPatch struct {
	Name      *string
	Objective *string
}

func (p CampaignPatch) Empty() bool { return p.Name == nil && p.Objective == nil }
