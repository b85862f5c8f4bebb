package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveLogin(LoginSuccess)
	m.ObserveLogin(LoginSuccess)
	m.ObserveLogin(LoginInvalidCredentials)
	m.ObserveVerification("remote", false)
	m.ObserveVerification("local", true)
	m.ObserveIssuance("local", true)
	m.ObserveSessionClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(LoginInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenVerify.WithLabelValues("remote", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenVerify.WithLabelValues("local", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenIssue.WithLabelValues("local", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsClosed))
}

func TestMetrics_HandlerExposesHTTPSeries(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/health", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `city_news_http_requests_total{method="GET",route="/health",status="200"} 1`))
	assert.Contains(t, body, "city_news_http_request_duration_seconds_bucket")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
