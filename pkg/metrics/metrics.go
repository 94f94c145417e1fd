package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Plan execution metrics
	PlanExecutionsTotal *prometheus.CounterVec
	PlanDuration        *prometheus.HistogramVec
	StalePlansTotal     prometheus.Counter

	// Upstream widget API metrics
	WidgetFetchesTotal  *prometheus.CounterVec
	WidgetFetchDuration *prometheus.HistogramVec
	WidgetFetchFailures *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all collectors against the given registerer; tests pass
// a fresh registry to avoid duplicate registration panics
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		PlanExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_executions_total",
				Help: "Total number of widget batch plan executions",
			},
			[]string{"mode", "status"},
		),

		PlanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plan_duration_seconds",
				Help:    "Batch plan execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		StalePlansTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stale_plans_total",
				Help: "Total number of plan executions discarded as stale",
			},
		),

		WidgetFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_fetches_total",
				Help: "Total number of upstream widget fetches",
			},
			[]string{"widget", "status"},
		),

		WidgetFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widget_fetch_duration_seconds",
				Help:    "Upstream widget fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"widget"},
		),

		WidgetFetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_fetch_failures_total",
				Help: "Total number of upstream widget fetch failures",
			},
			[]string{"widget", "error_type"},
		),

		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_sessions_active",
				Help: "Number of live dashboard sessions",
			},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Plan execution metrics
func (m *Metrics) RecordPlanExecution(mode, status string, duration time.Duration) {
	m.PlanExecutionsTotal.WithLabelValues(mode, status).Inc()
	m.PlanDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// Stale plan discard counter
func (m *Metrics) RecordStalePlan() {
	m.StalePlansTotal.Inc()
}

// Upstream widget fetch metrics
func (m *Metrics) RecordWidgetFetch(widget, status string, duration time.Duration) {
	m.WidgetFetchesTotal.WithLabelValues(widget, status).Inc()
	m.WidgetFetchDuration.WithLabelValues(widget).Observe(duration.Seconds())
}

// Upstream widget fetch failure metrics
func (m *Metrics) RecordWidgetFetchFailure(widget, errorType string) {
	m.WidgetFetchFailures.WithLabelValues(widget, errorType).Inc()
}

// Live session gauge
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
