package infra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordValidation(t *testing.T) {
	m := NewMetrics()

	m.RecordValidation("adjustment", "accepted", "", time.Millisecond)
	m.RecordValidation("adjustment", "accepted", "", 2*time.Millisecond)
	m.RecordValidation("creation", "rejected", "insufficient_balance", time.Millisecond)

	if got := testutil.ToFloat64(m.validations.WithLabelValues("adjustment", "accepted", "")); got != 2 {
		t.Errorf("Expected 2 accepted adjustments, got %v", got)
	}
	if got := testutil.ToFloat64(m.validations.WithLabelValues("creation", "rejected", "insufficient_balance")); got != 1 {
		t.Errorf("Expected 1 rejected creation, got %v", got)
	}
	if n := testutil.CollectAndCount(m.validationTime); n != 1 {
		t.Errorf("Expected 1 histogram series, got %d", n)
	}
}

func TestMetrics_FeedState(t *testing.T) {
	m := NewMetrics()

	m.SetPrice(1850.5)
	m.RecordReconnect("stream")
	m.RecordReconnect("stream")
	m.SetFeedConnected("stream", true)
	m.RecordError("storage")

	if got := testutil.ToFloat64(m.price); got != 1850.5 {
		t.Errorf("Expected price 1850.5, got %v", got)
	}
	if got := testutil.ToFloat64(m.reconnects.WithLabelValues("stream")); got != 2 {
		t.Errorf("Expected 2 reconnects, got %v", got)
	}
	if got := testutil.ToFloat64(m.feedConnected.WithLabelValues("stream")); got != 1 {
		t.Errorf("Expected connected gauge 1, got %v", got)
	}

	m.SetFeedConnected("stream", false)
	if got := testutil.ToFloat64(m.feedConnected.WithLabelValues("stream")); got != 0 {
		t.Errorf("Expected connected gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal.WithLabelValues("storage")); got != 1 {
		t.Errorf("Expected 1 storage error, got %v", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordValidation("closure", "no_change", "", time.Microsecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `trove_validations_total{change="closure",outcome="no_change",rejection=""} 1`) {
		t.Errorf("validation counter missing from output:\n%s", body)
	}
}
