package handlers

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/admux/ad-gateway/internal/quota"
	"github.com/admux/ad-gateway/internal/services"
	xhttp "github.com/admux/ad-gateway/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

// tenantTestContext builds a request context the way TenantMiddleware
// leaves it for the wrapped handler.
func tenantTestContext(method, path string, tenantID int64, body []byte) *xhttp.RequestCtx {
	ctx := setupTestContext(method, path, body)
	ctx.SetUserValue("tenant_id", tenantID)
	return ctx
}

func TestHelperFunctions(t *testing.T) {
	t.Run("readJSON", func(t *testing.T) {
		data := map[string]string{"key": "value"}
		bodyBytes, _ := json.Marshal(data)
		ctx := setupTestContext("POST", "/", bodyBytes)

		var result map[string]string
		err := readJSON(ctx, &result)
		require.NoError(t, err)
		assert.Equal(t, "value", result["key"])
	})

	t.Run("writeJSON", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		data := map[string]string{"message": "test"}

		writeJSON(ctx, 200, data)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Header.Peek("Content-Type")), "application/json")

		var result map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &result)
		require.NoError(t, err)
		assert.Equal(t, "test", result["message"])
	})

	t.Run("writeError", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeError(ctx, 404, "not found")

		assert.Equal(t, 404, ctx.Response.StatusCode())

		var result map[string]string
		err := json.Unmarshal(ctx.Response.Body(), &result)
		require.NoError(t, err)
		assert.Equal(t, "not found", result["error"])
	})

	t.Run("parseTime RFC3339", func(t *testing.T) {
		parsed, err := parseTime("2026-03-01T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, 2026, parsed.Year())
		assert.Equal(t, 12, parsed.Hour())
	})

	t.Run("parseTime date only", func(t *testing.T) {
		parsed, err := parseTime("2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, time.Month(3), parsed.Month())
		assert.Equal(t, 1, parsed.Day())
	})

	t.Run("parseTime invalid", func(t *testing.T) {
		_, err := parseTime("invalid")
		assert.Error(t, err)
	})
}

func TestWriteServiceError(t *testing.T) {
	t.Run("quota exceeded is 402 with detail", func(t *testing.T) {
		ctx := setupTestContext("POST", "/", nil)
		writeServiceError(ctx, &quota.ExceededError{
			Scope: "daily",
			Field: "sends_total",
			Limit: 200,
			Used:  200,
		})

		assert.Equal(t, 402, ctx.Response.StatusCode())

		var body map[string]any
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
		assert.Equal(t, "daily", body["scope"])
		assert.Equal(t, "sends_total", body["field"])
		assert.Equal(t, float64(200), body["limit"])
	})

	t.Run("inactive subscription is 402", func(t *testing.T) {
		ctx := setupTestContext("POST", "/", nil)
		writeServiceError(ctx, &quota.InactiveError{Status: "canceled"})
		assert.Equal(t, 402, ctx.Response.StatusCode())
	})

	t.Run("not found is 404", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeServiceError(ctx, services.ErrNotFound)
		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("anything else is 400", func(t *testing.T) {
		ctx := setupTestContext("POST", "/", nil)
		writeServiceError(ctx, errors.New("channel is required"))
		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestTenantMiddleware(t *testing.T) {
	var captured int64
	handler := TenantMiddleware(nil)(func(ctx *xhttp.RequestCtx) {
		captured = tenantID(ctx)
		ctx.Response.SetStatusCode(200)
	})

	t.Run("valid header passes tenant through", func(t *testing.T) {
		ctx := setupTestContext("GET", "/deliveries", nil)
		ctx.Request.Header.Set(tenantHeader, "42")
		handler(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, int64(42), captured)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		ctx := setupTestContext("GET", "/deliveries", nil)
		handler(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("non-numeric header is 401", func(t *testing.T) {
		ctx := setupTestContext("GET", "/deliveries", nil)
		ctx.Request.Header.Set(tenantHeader, "acme")
		handler(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("zero tenant is 401", func(t *testing.T) {
		ctx := setupTestContext("GET", "/deliveries", nil)
		ctx.Request.Header.Set(tenantHeader, "0")
		handler(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})
}

func TestAdminKeyGuard(t *testing.T) {
	guarded := AdminKeyGuard("s3cret", func(ctx *xhttp.RequestCtx) {
		ctx.Response.SetStatusCode(200)
	})

	t.Run("matching key passes", func(t *testing.T) {
		ctx := setupTestContext("POST", "/jobs/run-due", nil)
		ctx.Request.Header.Set("X-Admin-Key", "s3cret")
		guarded(ctx)
		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("wrong key is 401", func(t *testing.T) {
		ctx := setupTestContext("POST", "/jobs/run-due", nil)
		ctx.Request.Header.Set("X-Admin-Key", "guess")
		guarded(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("missing key is 401", func(t *testing.T) {
		ctx := setupTestContext("POST", "/jobs/run-due", nil)
		guarded(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})
}
