package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(body)
}

// assertSample matches one exposition line by name, a label fragment and value.
// The exporter may add its own labels so the fragment is matched loosely.
func assertSample(t *testing.T, output, name, labels, value string) {
	t.Helper()
	assert.Regexp(t, name+`\{[^}]*`+labels+`[^}]*\} `+value, output)
}

func newTestBusinessMetrics(t *testing.T) (*Provider, BusinessMetrics) {
	t.Helper()
	provider, err := NewProvider("gk")
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "gk")
	require.NoError(t, err)
	return provider, bm
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, bm := newTestBusinessMetrics(t)
	ctx := context.Background()

	bm.RecordOperation(ctx, "auth", "login", StatusSuccess)
	bm.RecordOperation(ctx, "auth", "login", StatusSuccess)
	bm.RecordOperation(ctx, "auth", "login", StatusError)
	bm.RecordOperation(ctx, "users", "deactivate_user", StatusSuccess)

	out := scrape(t, provider)
	assertSample(t, out, "gk_operations_total", `operation="login",status="success"`, "2")
	assertSample(t, out, "gk_operations_total", `operation="login",status="error"`, "1")
	assertSample(t, out, "gk_operations_total", `domain="users",operation="deactivate_user"`, "1")
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, bm := newTestBusinessMetrics(t)

	bm.RecordDuration(context.Background(), "auth", "refresh", 30*time.Millisecond, StatusSuccess)

	out := scrape(t, provider)
	assertSample(t, out, "gk_operation_duration_seconds_count", `operation="refresh"`, "1")
	assertSample(t, out, "gk_operation_duration_seconds_bucket", `operation="refresh".*le="0.05"`, "1")
	assertSample(t, out, "gk_operation_duration_seconds_bucket", `operation="refresh".*le="0.025"`, "0")
}

func TestBusinessMetrics_RecordSecurityEvent(t *testing.T) {
	provider, bm := newTestBusinessMetrics(t)
	ctx := context.Background()

	bm.RecordSecurityEvent(ctx, "auth.login", "failure")
	bm.RecordSecurityEvent(ctx, "auth.login", "failure")
	bm.RecordSecurityEvent(ctx, "auth.login", "success")

	out := scrape(t, provider)
	assertSample(t, out, "gk_security_events_total", `action="auth.login",outcome="failure"`, "2")
	assertSample(t, out, "gk_security_events_total", `action="auth.login",outcome="success"`, "1")
}

func TestNoOpBusinessMetrics(t *testing.T) {
	bm := NewNoOpBusinessMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		bm.RecordOperation(ctx, "auth", "login", StatusSuccess)
		bm.RecordDuration(ctx, "auth", "login", time.Second, StatusError)
		bm.RecordSecurityEvent(ctx, "user.created", "success")
	})
}
