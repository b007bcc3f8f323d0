package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ephemeral"

// Metrics groups all Prometheus instruments used by the engine and server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsStarted   *prometheus.CounterVec
	StartsRejected    prometheus.Counter
	Ticks             prometheus.Counter
	ActiveSessions    prometheus.Gauge
	SessionsFinalized *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
	ArchiveErrors     *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	WSClients         prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments on reg. A *prometheus.Registry also
// serves as the gatherer behind Handler.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)
	m := &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Decay sessions started by algorithm and content type.",
		}, []string{"algorithm", "content_type"}),
		StartsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "starts_rejected_total",
			Help:      "Start requests ignored because a session was already decaying.",
		}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Decay ticks applied.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently decaying.",
		}),
		SessionsFinalized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finalized_total",
			Help:      "Decay sessions that reached zero integrity, by algorithm.",
		}, []string{"algorithm"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall time from start to finalize.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60},
		}),
		ArchiveErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Archive operations that failed, by operation.",
		}, []string{"op"}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Engine events dropped because a subscriber was full.",
		}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket event subscribers.",
		}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func (m *Metrics) SessionStarted(algorithm, contentType string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(algorithm, contentType).Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) StartRejected() {
	if m == nil {
		return
	}
	m.StartsRejected.Inc()
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

func (m *Metrics) SessionFinalized(algorithm string, d time.Duration) {
	if m == nil {
		return
	}
	m.SessionsFinalized.WithLabelValues(algorithm).Inc()
	m.SessionDuration.Observe(d.Seconds())
	m.ActiveSessions.Dec()
}

func (m *Metrics) ArchiveError(op string) {
	if m == nil {
		return
	}
	m.ArchiveErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

func (m *Metrics) WSConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

func (m *Metrics) WSDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}

// Handler serves the exposition format for the registry passed to
// NewMetrics, or the default gatherer when m is nil.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
