package model

import (
	"errors"
	"strings"
	"time"
)

type Contact struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddrFor picks the destination address for a channel: email channels
// use the email field, everything else uses the phone.
func (c Contact) AddrFor(channel string) string {
	if strings.EqualFold(channel, "email") {
		return strings.TrimSpace(c.Email)
	}
	return strings.TrimSpace(c.Phone)
}

type ContactCreateRequest struct {
	TenantID int64
	Name     string
	Email    string
	Phone    string
}

func (r ContactCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Email == "" && r.Phone == "" {
		return errors.New("email or phone is required")
	}
	return nil
}

type ContactPatch struct {
	Name  *string
	Email *string
	Phone *string
}

func (p ContactPatch) Empty() bool { return p.Name == nil && p.Email == nil && p.Phone == nil }

// ContactFilter controls List queries. Query matches name, email or
// phone, case-insensitively.
type ContactFilter struct {
	Query  string
	Limit  int
	Offset int
}
