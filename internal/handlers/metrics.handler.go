package handlers

import (
	"context"
	"strconv"

	"github.com/admux/ad-gateway/internal/model"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/fasthttp/router"
)

// pixelGIF is a transparent 1x1 GIF served by the impression endpoint.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type MetricsService interface {
	RecordImpression(ctx context.Context, tenantID int64, adID *int64, linkSlug string) error
	RecordConversion(ctx context.Context, linkSlug string) error
	Overview(ctx context.Context, tenantID int64) (*model.EngagementReport, error)
	History(ctx context.Context, tenantID int64, days int) (*model.EngagementHistory, error)
	Channels(ctx context.Context, tenantID int64, days int) (*model.ChannelEngagement, error)
	Campaigns(ctx context.Context, tenantID int64, days int) (*model.CampaignDeliveryReport, error)
	CampaignConversions(ctx context.Context, tenantID int64, days int) (*model.CampaignConversionReport, error)
}

type MetricsHandler struct {
	svc            MetricsService
	allowedOrigins []string
}

func NewMetricsHandler(svc MetricsService, allowedOrigins []string) *MetricsHandler {
	return &MetricsHandler{
		svc:            svc,
		allowedOrigins: allowedOrigins,
	}
}

func RegisterMetricsRoutes(e *router.Group, h *MetricsHandler, tenant xhttp.MiddlewareFunc) {
	e.GET("/dashboard", tenant(h.GetOverview))
	e.GET("/dashboard/history", tenant(h.GetHistory))
	e.GET("/dashboard/channels", tenant(h.GetChannels))
	e.GET("/dashboard/campaigns", tenant(h.GetCampaigns))
	e.GET("/dashboard/campaign-conversions", tenant(h.GetCampaignConversions))
}

// RegisterTrackingRoutes mounts the public tracking endpoints outside
// the tenant-scoped API group. The pixel and the conversion hook are
// hit by end-user browsers, not API clients.
func RegisterTrackingRoutes(r *xhttp.Router, h *MetricsHandler) {
	r.GET("/px/impression.gif", h.GetImpressionPixel)
	r.POST("/events/conversion", h.PostConversion)
}

// GetImpressionPixel always answers with the 1x1 GIF. The event is
// recorded only when the request's Origin passes the allowlist; a
// blocked origin still gets the pixel so pages do not break.
func (h *MetricsHandler) GetImpressionPixel(ctx *xhttp.RequestCtx) {
	tenant, _ := strconv.ParseInt(query(ctx, "tenant_id"), 10, 64)
	var adID *int64
	if v := query(ctx, "ad_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			adID = &id
		}
	}
	linkSlug := query(ctx, "link_slug")

	origin := string(ctx.Request.Header.Peek("Origin"))
	originAllowed := h.originAllowed(origin)

	canRecord := origin == "" || len(h.allowedOrigins) == 0 || originAllowed
	if tenant <= 0 && linkSlug == "" {
		// nothing to attribute the hit to
		canRecord = false
	}
	if canRecord {
		if err := h.svc.RecordImpression(ctx, tenant, adID, linkSlug); err != nil {
			writeError(ctx, 500, "failed to record impression")
			return
		}
	}

	if origin != "" && originAllowed {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
		ctx.Response.Header.Set("Vary", "Origin")
	}
	ctx.Response.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response.Header.SetContentType("image/gif")
	ctx.Response.SetStatusCode(200)
	ctx.Response.SetBodyRaw(pixelGIF)
}

func (h *MetricsHandler) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (h *MetricsHandler) PostConversion(ctx *xhttp.RequestCtx) {
	slug := query(ctx, "slug")
	if slug == "" {
		writeError(ctx, 400, "slug is required")
		return
	}
	if err := h.svc.RecordConversion(ctx, slug); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, map[string]bool{"ok": true})
}

func (h *MetricsHandler) GetOverview(ctx *xhttp.RequestCtx) {
	report, err := h.svc.Overview(ctx, tenantID(ctx))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}

func (h *MetricsHandler) GetHistory(ctx *xhttp.RequestCtx) {
	report, err := h.svc.History(ctx, tenantID(ctx), queryInt(ctx, "days"))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}

func (h *MetricsHandler) GetChannels(ctx *xhttp.RequestCtx) {
	report, err := h.svc.Channels(ctx, tenantID(ctx), queryInt(ctx, "days"))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}

func (h *MetricsHandler) GetCampaigns(ctx *xhttp.RequestCtx) {
	report, err := h.svc.Campaigns(ctx, tenantID(ctx), queryInt(ctx, "days"))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}

func (h *MetricsHandler) GetCampaignConversions(ctx *xhttp.RequestCtx) {
	report, err := h.svc.CampaignConversions(ctx, tenantID(ctx), queryInt(ctx, "days"))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, report)
}
