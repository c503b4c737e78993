package model

import (
	"errors"
	"time"
)

type Template struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TemplateCreateRequest struct {
	TenantID int64
	Name     string
	Channel  string
	Body     string
}

func (r TemplateCreateRequest) Validate() error {
	if r.TenantID == 0 {
		return errors.New("tenant_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Body == "" {
		return errors.New("body is required")
	}
	return nil
}
