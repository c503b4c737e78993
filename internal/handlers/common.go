package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/ratelimit"
	"github.com/admux/ad-gateway/internal/services"
	xhttp "github.com/admux/ad-gateway/pkg/http"
)

const tenantHeader = "X-Tenant-ID"

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service failures onto the API status codes:
// quota rejections are 402, missing records 404, everything else is
// treated as a bad request.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		writeJSON(ctx, 402, map[string]any{
			"error": exceeded.Error(),
			"scope": exceeded.Scope,
			"field": exceeded.Field,
			"limit": exceeded.Limit,
			"used":  exceeded.Used,
		})
		return
	}
	var inactive *quota.InactiveError
	if errors.As(err, &inactive) {
		writeError(ctx, 402, inactive.Error())
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		writeError(ctx, 404, "not found")
		return
	}
	writeError(ctx, 400, err.Error())
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func tenantID(ctx *xhttp.RequestCtx) int64 {
	id, _ := ctx.UserValue("tenant_id").(int64)
	return id
}

// TenantMiddleware resolves the calling tenant from the X-Tenant-ID
// header and throttles per tenant when a limiter is configured.
func TenantMiddleware(limiter *ratelimit.Limiter) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			raw := string(ctx.Request.Header.Peek(tenantHeader))
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				writeError(ctx, 401, "missing or invalid "+tenantHeader+" header")
				return
			}
			if limiter != nil && !limiter.Allow(raw) {
				writeError(ctx, 429, "rate limit exceeded")
				return
			}
			ctx.SetUserValue("tenant_id", id)
			next(ctx)
		}
	}
}

// AdminKeyGuard protects operational endpoints with a shared key in
// the X-Admin-Key header.
func AdminKeyGuard(key string, next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		got := ctx.Request.Header.Peek("X-Admin-Key")
		if subtle.ConstantTimeCompare(got, []byte(key)) != 1 {
			writeError(ctx, 401, "invalid admin key")
			return
		}
		next(ctx)
	}
}
