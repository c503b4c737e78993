package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/admux/ad-gateway/internal/model"
	"github.com/admux/ad-gateway/internal/repository"
)

const dayFormat = "2006-01-02"

type MetricEventRepository interface {
	Record(ctx context.Context, ev *model.MetricEvent) error
	SumByType(ctx context.Context, tenantID int64, eventType model.MetricEventType) (int64, error)
	Window(ctx context.Context, tenantID int64, start time.Time) ([]*model.MetricEvent, error)
}

type AdCatalog interface {
	ByIDs(ctx context.Context, tenantID int64, ids []int64) ([]*model.Ad, error)
}

type CampaignNames interface {
	NamesByIDs(ctx context.Context, tenantID int64, ids []int64) (map[int64]string, error)
}

type DeliveryCampaignWindow interface {
	CampaignWindow(ctx context.Context, tenantID int64, start time.Time) ([]*model.CampaignDeliveryPoint, error)
}

type LinkResolver interface {
	BySlug(ctx context.Context, slug string) (*model.ShortLink, error)
}

type MetricsService struct {
	events     MetricEventRepository
	ads        AdCatalog
	campaigns  CampaignNames
	deliveries DeliveryCampaignWindow
	links      LinkResolver
	now        func() time.Time
}

func NewMetricsService(events MetricEventRepository, ads AdCatalog, campaigns CampaignNames, deliveries DeliveryCampaignWindow, links LinkResolver) *MetricsService {
	return &MetricsService{
		events:     events,
		ads:        ads,
		campaigns:  campaigns,
		deliveries: deliveries,
		links:      links,
		now:        time.Now,
	}
}

func (s *MetricsService) WithClock(now func() time.Time) *MetricsService {
	s.now = now
	return s
}

// RecordImpression stores a pixel hit. A link slug, when present and
// known, overrides the tenant and fills the ad attribution; an unknown
// slug still records against the caller-supplied tenant.
func (s *MetricsService) RecordImpression(ctx context.Context, tenantID int64, adID *int64, linkSlug string) error {
	var linkID *int64
	if linkSlug != "" {
		link, err := s.links.BySlug(ctx, linkSlug)
		if err != nil && !errors.Is(err, repository.ErrShortLinkNotFound) {
			return err
		}
		if link != nil {
			linkID = &link.ID
			tenantID = link.TenantID
			if adID == nil {
				adID = link.AdID
			}
		}
	}
	return s.events.Record(ctx, &model.MetricEvent{
		TenantID:  tenantID,
		AdID:      adID,
		LinkID:    linkID,
		EventType: model.MetricEventImpression,
		Value:     1,
		CreatedAt: s.now().UTC(),
	})
}

// RecordConversion attributes a conversion to the short link the
// visitor came through.
func (s *MetricsService) RecordConversion(ctx context.Context, linkSlug string) error {
	link, err := s.links.BySlug(ctx, linkSlug)
	if err != nil {
		if errors.Is(err, repository.ErrShortLinkNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.events.Record(ctx, &model.MetricEvent{
		TenantID:  link.TenantID,
		AdID:      link.AdID,
		LinkID:    &link.ID,
		EventType: model.MetricEventConversion,
		Value:     1,
		CreatedAt: s.now().UTC(),
	})
}

// Overview is the all-time summary. Impressions are proxied by the
// click total.
func (s *MetricsService) Overview(ctx context.Context, tenantID int64) (*model.EngagementReport, error) {
	clicks, err := s.events.SumByType(ctx, tenantID, model.MetricEventClick)
	if err != nil {
		return nil, err
	}
	conversions, err := s.events.SumByType(ctx, tenantID, model.MetricEventConversion)
	if err != nil {
		return nil, err
	}
	return &model.EngagementReport{
		Clicks:           clicks,
		Conversions:      conversions,
		ImpressionsProxy: clicks,
		CTRProxy:         ctr(clicks, clicks),
		TS:               s.now().UTC(),
	}, nil
}

type eventTotals struct {
	clicks      int64
	conversions int64
	impressions int64
}

func (t *eventTotals) add(eventType model.MetricEventType, value int64) {
	switch eventType {
	case model.MetricEventClick:
		t.clicks += value
	case model.MetricEventConversion:
		t.conversions += value
	case model.MetricEventImpression:
		t.impressions += value
	}
}

// impressionsProxy falls back to clicks for buckets the pixel never
// reached.
func (t *eventTotals) impressionsProxy() int64 {
	if t.impressions > 0 {
		return t.impressions
	}
	return t.clicks
}

// History returns one point per calendar day over the trailing window,
// oldest first, zero-filled.
func (s *MetricsService) History(ctx context.Context, tenantID int64, days int) (*model.EngagementHistory, error) {
	days = clampDays(days, 14, 90)
	start := s.windowStart(days)

	events, err := s.events.Window(ctx, tenantID, start)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*eventTotals)
	for _, ev := range events {
		day := ev.CreatedAt.UTC().Format(dayFormat)
		totals, ok := byDay[day]
		if !ok {
			totals = &eventTotals{}
			byDay[day] = totals
		}
		totals.add(ev.EventType, ev.Value)
	}

	points := make([]model.EngagementHistoryPoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format(dayFormat)
		totals := byDay[day]
		if totals == nil {
			totals = &eventTotals{}
		}
		impressions := totals.impressionsProxy()
		points = append(points, model.EngagementHistoryPoint{
			Day:              day,
			Clicks:           totals.clicks,
			Conversions:      totals.conversions,
			ImpressionsProxy: impressions,
			CTRProxy:         ctr(totals.clicks, impressions),
		})
	}
	return &model.EngagementHistory{Days: days, Points: points}, nil
}

// Channels breaks the window down by the channel of the attributed ad.
// Events without an ad id carry no channel and are left out.
func (s *MetricsService) Channels(ctx context.Context, tenantID int64, days int) (*model.ChannelEngagement, error) {
	days = clampDays(days, 14, 90)

	events, err := s.events.Window(ctx, tenantID, s.windowStart(days))
	if err != nil {
		return nil, err
	}

	channelByAd, _, err := s.adAttribution(ctx, tenantID, events)
	if err != nil {
		return nil, err
	}

	byChannel := make(map[string]*eventTotals)
	for _, ev := range events {
		if ev.AdID == nil {
			continue
		}
		channel, ok := channelByAd[*ev.AdID]
		if !ok {
			continue
		}
		totals := byChannel[channel]
		if totals == nil {
			totals = &eventTotals{}
			byChannel[channel] = totals
		}
		totals.add(ev.EventType, ev.Value)
	}

	channels := make([]string, 0, len(byChannel))
	for ch := range byChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	points := make([]model.ChannelEngagementPoint, 0, len(channels))
	for _, ch := range channels {
		totals := byChannel[ch]
		impressions := totals.impressionsProxy()
		points = append(points, model.ChannelEngagementPoint{
			Channel:          ch,
			Clicks:           totals.clicks,
			Conversions:      totals.conversions,
			ImpressionsProxy: impressions,
			CTRProxy:         ctr(totals.clicks, impressions),
		})
	}
	return &model.ChannelEngagement{Days: days, Points: points}, nil
}

// Campaigns counts deliveries per campaign and status over the window,
// busiest campaigns first.
func (s *MetricsService) Campaigns(ctx context.Context, tenantID int64, days int) (*model.CampaignDeliveryReport, error) {
	days = clampDays(days, 30, 180)

	points, err := s.deliveries.CampaignWindow(ctx, tenantID, s.windowStart(days))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(points))
	for _, p := range points {
		if p.CampaignID != nil {
			ids = append(ids, *p.CampaignID)
		}
	}
	names, err := s.campaigns.NamesByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.CampaignDeliveryPoint, 0, len(points))
	for _, p := range points {
		p.CampaignName = campaignLabel(p.CampaignID, names)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].CampaignName > out[j].CampaignName
	})
	return &model.CampaignDeliveryReport{Days: days, Points: out}, nil
}

// CampaignConversions rolls clicks and conversions up to the campaign
// of the attributed ad, best converting first.
func (s *MetricsService) CampaignConversions(ctx context.Context, tenantID int64, days int) (*model.CampaignConversionReport, error) {
	days = clampDays(days, 30, 180)

	events, err := s.events.Window(ctx, tenantID, s.windowStart(days))
	if err != nil {
		return nil, err
	}

	_, campaignByAd, err := s.adAttribution(ctx, tenantID, events)
	if err != nil {
		return nil, err
	}

	type campaignTotals struct {
		id     *int64
		totals eventTotals
	}
	byCampaign := make(map[int64]*campaignTotals)
	for _, ev := range events {
		if ev.AdID == nil {
			continue
		}
		campaignID, ok := campaignByAd[*ev.AdID]
		if !ok {
			continue
		}
		var key int64
		if campaignID != nil {
			key = *campaignID
		}
		entry := byCampaign[key]
		if entry == nil {
			entry = &campaignTotals{id: campaignID}
			byCampaign[key] = entry
		}
		entry.totals.add(ev.EventType, ev.Value)
	}

	ids := make([]int64, 0, len(byCampaign))
	for key, entry := range byCampaign {
		if entry.id != nil {
			ids = append(ids, key)
		}
	}
	names, err := s.campaigns.NamesByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	points := make([]model.CampaignConversionPoint, 0, len(byCampaign))
	for _, entry := range byCampaign {
		points = append(points, model.CampaignConversionPoint{
			CampaignID:   entry.id,
			CampaignName: campaignLabel(entry.id, names),
			Clicks:       entry.totals.clicks,
			Conversions:  entry.totals.conversions,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Conversions != points[j].Conversions {
			return points[i].Conversions > points[j].Conversions
		}
		if points[i].Clicks != points[j].Clicks {
			return points[i].Clicks > points[j].Clicks
		}
		return points[i].CampaignName > points[j].CampaignName
	})
	return &model.CampaignConversionReport{Days: days, Points: points}, nil
}

// adAttribution loads the ads referenced by the window's events and
// returns channel and campaign lookups keyed by ad id.
func (s *MetricsService) adAttribution(ctx context.Context, tenantID int64, events []*model.MetricEvent) (map[int64]string, map[int64]*int64, error) {
	seen := make(map[int64]bool)
	ids := make([]int64, 0)
	for _, ev := range events {
		if ev.AdID != nil && !seen[*ev.AdID] {
			seen[*ev.AdID] = true
			ids = append(ids, *ev.AdID)
		}
	}
	ads, err := s.ads.ByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, nil, err
	}
	channels := make(map[int64]string, len(ads))
	campaigns := make(map[int64]*int64, len(ads))
	for _, ad := range ads {
		channels[ad.ID] = ad.Channel
		campaigns[ad.ID] = ad.CampaignID
	}
	return channels, campaigns, nil
}

func (s *MetricsService) windowStart(days int) time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -(days - 1))
}

func clampDays(days, def, max int) int {
	if days <= 0 {
		return def
	}
	if days > max {
		return max
	}
	return days
}

func ctr(clicks, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	return float64(clicks) / float64(impressions)
}

func campaignLabel(id *int64, names map[int64]string) string {
	if id != nil {
		if name, ok := names[*id]; ok && name != "" {
			return name
		}
	}
	return "No campaign"
}
