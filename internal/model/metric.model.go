package model

import "time"

// MetricEventType classifies an engagement event.
type MetricEventType string

const (
	MetricEventImpression MetricEventType = "impression"
	MetricEventClick      MetricEventType = "click"
	MetricEventConversion MetricEventType = "conversion"
)

// MetricEvent is one engagement signal, attributed to an ad and a short
// link when known.
type MetricEvent struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	AdID      *int64          `json:"ad_id,omitempty"`
	LinkID    *int64          `json:"link_id,omitempty"`
	EventType MetricEventType `json:"event_type"`
	Value     int64           `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
}

// EngagementReport is the all-time engagement summary. Impressions are
// proxied by clicks: pixel hits undercount against blockers, so the
// click total is the floor the CTR is computed over.
type EngagementReport struct {
	Clicks           int64     `json:"clicks"`
	Conversions      int64     `json:"conversions"`
	ImpressionsProxy int64     `json:"impressions_proxy"`
	CTRProxy         float64   `json:"ctr_proxy"`
	TS               time.Time `json:"ts"`
}

type EngagementHistoryPoint struct {
	Day              string  `json:"day"`
	Clicks           int64   `json:"clicks"`
	Conversions      int64   `json:"conversions"`
	ImpressionsProxy int64   `json:"impressions_proxy"`
	CTRProxy         float64 `json:"ctr_proxy"`
}

// EngagementHistory is one point per calendar day over a trailing
// window, zero-filled for days without events.
type EngagementHistory struct {
	Days   int                      `json:"days"`
	Points []EngagementHistoryPoint `json:"points"`
}

type ChannelEngagementPoint struct {
	Channel          string  `json:"channel"`
	Clicks           int64   `json:"clicks"`
	Conversions      int64   `json:"conversions"`
	ImpressionsProxy int64   `json:"impressions_proxy"`
	CTRProxy         float64 `json:"ctr_proxy"`
}

// ChannelEngagement breaks the window down by the channel of the
// attributed ad. Events without an ad attribution are excluded.
type ChannelEngagement struct {
	Days   int                      `json:"days"`
	Points []ChannelEngagementPoint `json:"points"`
}

type CampaignDeliveryPoint struct {
	CampaignID   *int64 `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Total        int64  `json:"total"`
	Sent         int64  `json:"sent"`
	Failed       int64  `json:"failed"`
	Retrying     int64  `json:"retrying"`
	Queued       int64  `json:"queued"`
	Sending      int64  `json:"sending"`
}

// CampaignDeliveryReport counts deliveries per campaign and status over
// a trailing window. Deliveries without a campaign group under one
// unnamed bucket.
type CampaignDeliveryReport struct {
	Days   int                     `json:"days"`
	Points []CampaignDeliveryPoint `json:"points"`
}

type CampaignConversionPoint struct {
	CampaignID   *int64 `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	Clicks       int64  `json:"clicks"`
	Conversions  int64  `json:"conversions"`
}

type CampaignConversionReport struct {
	Days   int                       `json:"days"`
	Points []CampaignConversionPoint `json:"points"`
}
