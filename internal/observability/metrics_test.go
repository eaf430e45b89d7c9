package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.ObserveAPI("POST", "/assets/:id/approve", "200", 20*time.Millisecond)
	m.ObserveAPI("POST", "/assets/:id/approve", "503", time.Second)
	m.ObserveAggregateOperation("Review.Asset.Approve", "success", 5*time.Millisecond)
	m.IncAggregateConflict("Review.Asset.Approve")
	m.ObserveNotification("asset_approved", "success", 3)
	m.ObserveNotification("asset_approved", "error", 2)

	if got := m.apiReqTotal.Value(); got != 2 {
		t.Fatalf("api requests total: want=2 got=%v", got)
	}
	if got := m.apiReqError.Value(); got != 1 {
		t.Fatalf("api request errors: want=1 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`rf_api_requests_total{method="POST",route="/assets/:id/approve",status="200"} 1.000000`,
		`rf_api_requests_error_total 1.000000`,
		`rf_aggregate_operations_total{operation="Review.Asset.Approve",status="success"} 1.000000`,
		`rf_aggregate_conflicts_total{operation="Review.Asset.Approve"} 1.000000`,
		`rf_notification_recipients_total{kind="asset_approved"} 5.000000`,
		`rf_notification_failures_total 1.000000`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveAggregateOperation("x", "success", time.Millisecond)
	m.ObserveNotification("x", "success", 1)
	m.IncStorageCleanup("deleted")
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(" api-key = abc , broken, =x, team=review ")
	if len(h) != 2 || h["api-key"] != "abc" || h["team"] != "review" {
		t.Fatalf("ParseHeaders: got=%v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("ParseHeaders empty: want nil")
	}
}

func TestHistogramBuckets(t *testing.T) {
	h := NewHistogramVec("h", "help", []string{"op"}, []float64{1, 2})
	h.Observe(0.5, "a")
	h.Observe(1.5, "a")
	h.Observe(3, "a")
	var buf bytes.Buffer
	if err := h.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`h_bucket{op="a",le="1"} 1`,
		`h_bucket{op="a",le="2"} 2`,
		`h_bucket{op="a",le="+Inf"} 3`,
		`h_count{op="a"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing line %q in:\n%s", want, out)
		}
	}
}
