package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.Observe("GET", "/api/v1/products", "200", 25*time.Millisecond)
	m.Observe("GET", "/api/v1/products", "200", 30*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families")
	}

	count := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/products", "200"))
	if count != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", count)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/x", "200", time.Millisecond)

	empty := NewHTTPMetrics(nil)
	empty.Observe("GET", "", "500", time.Millisecond)
}

func TestWebhookMetricsInc(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.Inc("payment.succeeded", "processed")
	m.Inc("payment.succeeded", "processed")
	m.Inc("", "rejected")

	processed := testutil.ToFloat64(m.outcomes.WithLabelValues("payment.succeeded", "processed"))
	if processed != 2 {
		t.Fatalf("expected 2 processed events, got %v", processed)
	}
	rejected := testutil.ToFloat64(m.outcomes.WithLabelValues("unknown", "rejected"))
	if rejected != 1 {
		t.Fatalf("expected 1 rejected event with normalized label, got %v", rejected)
	}
}
