// Package metrics holds the Prometheus collectors of the API. They live on a
// dedicated registry so tests can build as many instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "city_news"

// Login outcomes
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginError              = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	logins           *prometheus.CounterVec
	sessionsClosed   prometheus.Counter
	tokenVerify      *prometheus.CounterVec
	tokenIssue       *prometheus.CounterVec
	searchLogFailure prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Sessions transitioned from open to closed.",
		}),
		tokenVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verifications_total",
			Help:      "Token verification attempts by strategy and result.",
		}, []string{"strategy", "result"}),
		tokenIssue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_issuances_total",
			Help:      "Token issuance attempts by strategy and result.",
		}, []string{"strategy", "result"}),
		searchLogFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_log_failures_total",
			Help:      "Searches that could not be recorded.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.logins,
		m.sessionsClosed,
		m.tokenVerify,
		m.tokenIssue,
		m.searchLogFailure,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSessionClosed() {
	m.sessionsClosed.Inc()
}

func (m *Metrics) ObserveSearchLogFailure() {
	m.searchLogFailure.Inc()
}

// ObserveVerification implements jwt.Recorder
func (m *Metrics) ObserveVerification(strategy string, ok bool) {
	m.tokenVerify.WithLabelValues(strategy, result(ok)).Inc()
}

// ObserveIssuance implements jwt.Recorder
func (m *Metrics) ObserveIssuance(strategy string, ok bool) {
	m.tokenIssue.WithLabelValues(strategy, result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}
