package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.DetectRequests.Add(3)
	m.DetectFailures.Add(1)
	SetFlag(&m.Checking, true)
	m.UpdateDetectLatency(250 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"kiosk_detect_requests_total 3",
		"kiosk_detect_failures_total 1",
		"kiosk_checking 1",
		"kiosk_detect_latency_ms 250",
		"kiosk_camera_bound 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestSetFlag(t *testing.T) {
	m := New()
	SetFlag(&m.CameraBound, true)
	if m.CameraBound.Load() != 1 {
		t.Fatal("flag not set")
	}
	SetFlag(&m.CameraBound, false)
	if m.CameraBound.Load() != 0 {
		t.Fatal("flag not cleared")
	}
}
