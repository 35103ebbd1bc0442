package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the Wavy ingest/serve node.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	uploadsTotal           prometheus.Counter
	uploadBytesTotal       prometheus.Counter
	assetsPromotedTotal    prometheus.Counter
	validatorRejectedTotal prometheus.Counter
	validatorWarnedTotal   prometheus.Counter
	handshakeFailuresTotal prometheus.Counter
	sessionsActive         prometheus.Gauge
	errorsTotal            prometheus.Counter
}

// New creates and registers Prometheus metrics for the ingest/serve node.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_requests_total",
		Help: "Total number of dispatched requests across all sessions",
	})
	uploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_uploads_total",
		Help: "Total number of accepted uploads (promoted archives and parsed metadata bodies)",
	})
	uploadBytesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_upload_bytes_total",
		Help: "Total number of request body bytes of accepted uploads",
	})
	assetsPromotedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_assets_promoted_total",
		Help: "Total number of assets successfully promoted into storage",
	})
	validatorRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_validator_rejected_files_total",
		Help: "Total number of staged files deleted by the validator sweep",
	})
	validatorWarnedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_validator_warned_files_total",
		Help: "Total number of staged files kept despite a validator warning",
	})
	handshakeFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_tls_handshake_failures_total",
		Help: "Total number of sessions that failed the TLS handshake",
	})
	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wavy_sessions_active",
		Help: "Number of sessions currently past the accept step and not yet closed",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wavy_errors_total",
		Help: "Total number of responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		uploadsTotal,
		uploadBytesTotal,
		assetsPromotedTotal,
		validatorRejectedTotal,
		validatorWarnedTotal,
		handshakeFailuresTotal,
		sessionsActive,
		errorsTotal,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		uploadsTotal:           uploadsTotal,
		uploadBytesTotal:       uploadBytesTotal,
		assetsPromotedTotal:    assetsPromotedTotal,
		validatorRejectedTotal: validatorRejectedTotal,
		validatorWarnedTotal:   validatorWarnedTotal,
		handshakeFailuresTotal: handshakeFailuresTotal,
		sessionsActive:         sessionsActive,
		errorsTotal:            errorsTotal,
	}
}

// IncRequests increments the total dispatched-request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncUpload records one accepted upload (archive or metadata) of the given
// body size in bytes.
func (m *Metrics) IncUpload(bodyBytes int) {
	m.uploadsTotal.Inc()
	m.uploadBytesTotal.Add(float64(bodyBytes))
}

// AddAssetsPromoted adds n to the promoted-assets counter.
func (m *Metrics) AddAssetsPromoted(n int) {
	m.assetsPromotedTotal.Add(float64(n))
}

// IncValidatorRejected increments the count of files deleted by the sweep.
func (m *Metrics) IncValidatorRejected() {
	m.validatorRejectedTotal.Inc()
}

// IncValidatorWarned increments the count of files kept despite a warning.
func (m *Metrics) IncValidatorWarned() {
	m.validatorWarnedTotal.Inc()
}

// IncHandshakeFailures increments the TLS handshake failure counter.
func (m *Metrics) IncHandshakeFailures() {
	m.handshakeFailuresTotal.Inc()
}

// SessionStarted increments the active-sessions gauge. Call SessionEnded when
// the session's state machine reaches SHUTDOWN.
func (m *Metrics) SessionStarted() {
	m.sessionsActive.Inc()
}

// SessionEnded decrements the active-sessions gauge.
func (m *Metrics) SessionEnded() {
	m.sessionsActive.Dec()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// RecordStatus increments the error counter when status indicates a client or
// server error response (>= 400).
func (m *Metrics) RecordStatus(status int) {
	if status >= 400 {
		m.IncErrors()
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values; it may be nil.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
