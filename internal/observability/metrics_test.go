package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SessionStarted("erosion", "text")
	m.StartRejected()
	m.Tick()
	m.SessionFinalized("erosion", time.Second)
	m.ArchiveError("append")
	m.EventDropped()
	m.WSConnected()
	m.WSDisconnected()
}

func TestSessionLifecycleGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "")

	m.SessionStarted("burning", "image")
	if got := testutil.ToFloat64(m.ActiveSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	m.SessionFinalized("burning", 5*time.Second)
	if got := testutil.ToFloat64(m.ActiveSessions); got != 0 {
		t.Errorf("active_sessions = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.SessionsStarted.WithLabelValues("burning", "image")); got != 1 {
		t.Errorf("sessions_started_total = %v, want 1", got)
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "ephemeral")
	m.Tick()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ephemeral_ticks_total 1") {
		t.Errorf("body missing ephemeral_ticks_total:\n%s", w.Body.String())
	}
}
