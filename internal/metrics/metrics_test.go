package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Registered("walker")
	m.Registered("walker")
	m.Login(false)
	m.BookingTransition("Accepted")
	m.StoreConflict("bookings")

	if got := testutil.ToFloat64(m.registrations.WithLabelValues("walker")); got != 2 {
		t.Fatalf("registrations = %v", got)
	}
	if got := testutil.ToFloat64(m.logins.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failed logins = %v", got)
	}
	if got := testutil.ToFloat64(m.bookingTransitions.WithLabelValues("Accepted")); got != 1 {
		t.Fatalf("transitions = %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `furamora_store_conflicts_total{key="bookings"} 1`) {
		t.Fatalf("exposition missing conflict counter:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Registered("owner")
	m.Login(true)
	m.BookingCreated()
	m.BookingTransition("Declined")
	m.ReportSubmitted()
	m.MirrorFailed()
	m.StoreConflict("users")
}
