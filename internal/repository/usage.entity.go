package repository

import (
	"time"

	"github.com/admux/ad-gateway/internal/model"
)

type DailyUsageEntity struct {
	TenantID      int64     `db:"tenant_id"      gorm:"primaryKey;column:tenant_id;autoIncrement:false"`
	Day           string    `db:"day"            gorm:"primaryKey;column:day"`
	SendsTotal    int       `db:"sends_total"    gorm:"column:sends_total;not null;default:0"`
	SendsWhatsapp int       `db:"sends_whatsapp" gorm:"column:sends_whatsapp;not null;default:0"`
	SendsX        int       `db:"sends_x"        gorm:"column:sends_x;not null;default:0"`
	SendsEmail    int       `db:"sends_email"    gorm:"column:sends_email;not null;default:0"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at"`
	UpdatedAt     time.Time `db:"updated_at"     gorm:"column:updated_at"`
}

func (DailyUsageEntity) TableName() string {
	return "tenant_usage_daily"
}

func toDailyUsageModel(e *DailyUsageEntity) *model.DailyUsage {
	if e == nil {
		return nil
	}
	return &model.DailyUsage{
		TenantID:      e.TenantID,
		Day:           e.Day,
		SendsTotal:    e.SendsTotal,
		SendsWhatsapp: e.SendsWhatsapp,
		SendsX:        e.SendsX,
		SendsEmail:    e.SendsEmail,
	}
}

type MonthlyUsageEntity struct {
	TenantID         int64     `db:"tenant_id"         gorm:"primaryKey;column:tenant_id;autoIncrement:false"`
	Month            string    `db:"month"             gorm:"primaryKey;column:month"`
	AdsCreated       int       `db:"ads_created"       gorm:"column:ads_created;not null;default:0"`
	TemplatesCreated int       `db:"templates_created" gorm:"column:templates_created;not null;default:0"`
	LinksCreated     int       `db:"links_created"     gorm:"column:links_created;not null;default:0"`
	InvitesCreated   int       `db:"invites_created"   gorm:"column:invites_created;not null;default:0"`
	CreatedAt        time.Time `db:"created_at"        gorm:"column:created_at"`
	UpdatedAt        time.Time `db:"updated_at"        gorm:"column:updated_at"`
}

func (MonthlyUsageEntity) TableName() string {
	return "tenant_usage_monthly"
}

func toMonthlyUsageModel(e *MonthlyUsageEntity) *model.MonthlyUsage {
	if e == nil {
		return nil
	}
	return &model.MonthlyUsage{
		TenantID:         e.TenantID,
		Month:            e.Month,
		AdsCreated:       e.AdsCreated,
		TemplatesCreated: e.TemplatesCreated,
		LinksCreated:     e.LinksCreated,
		InvitesCreated:   e.InvitesCreated,
	}
}
