package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all kiosk metrics
type Metrics struct {
	// Camera
	FramesCaptured atomic.Uint64
	CameraBound    atomic.Uint64 // 0 = unbound, 1 = bound
	CameraErrors   atomic.Uint64

	// Capture/detect loop
	Checking          atomic.Uint64 // 0 = idle, 1 = checking
	TicksSkipped      atomic.Uint64
	DetectRequests    atomic.Uint64
	DetectFailures    atomic.Uint64
	DetectStale       atomic.Uint64
	DetectLatencyMs   atomic.Uint64
	FacesLastResponse atomic.Uint64

	// Attendance
	Records       atomic.Uint64
	Resets        atomic.Uint64
	ResetFailures atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) gauge(name, help string, v *atomic.Uint64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		func() float64 { return float64(v.Load()) },
	))
}

func (m *Metrics) registerPrometheusMetrics() {
	m.gauge("kiosk_camera_frames_captured_total", "Total frames read from the camera source", &m.FramesCaptured)
	m.gauge("kiosk_camera_bound", "Camera bound to the display surface (0=no, 1=yes)", &m.CameraBound)
	m.gauge("kiosk_camera_errors_total", "Total camera acquire and read errors", &m.CameraErrors)

	m.gauge("kiosk_checking", "Attendance checking armed (0=idle, 1=checking)", &m.Checking)
	m.gauge("kiosk_ticks_skipped_total", "Ticks skipped because no frame was available", &m.TicksSkipped)
	m.gauge("kiosk_detect_requests_total", "Total detect-face requests sent", &m.DetectRequests)
	m.gauge("kiosk_detect_failures_total", "Total failed detect-face requests", &m.DetectFailures)
	m.gauge("kiosk_detect_stale_total", "Detect-face responses discarded as stale", &m.DetectStale)
	m.gauge("kiosk_detect_latency_ms", "Latency of the last detect-face request in milliseconds", &m.DetectLatencyMs)
	m.gauge("kiosk_faces_last_response", "Faces in the last applied detection response", &m.FacesLastResponse)

	m.gauge("kiosk_attendance_records", "Attendance records currently displayed", &m.Records)
	m.gauge("kiosk_attendance_resets_total", "Total successful attendance resets", &m.Resets)
	m.gauge("kiosk_attendance_reset_failures_total", "Total failed attendance resets", &m.ResetFailures)
}

// UpdateDetectLatency records how long the last detect-face request took.
func (m *Metrics) UpdateDetectLatency(d time.Duration) {
	m.DetectLatencyMs.Store(uint64(d.Milliseconds()))
}

// SetFlag stores a boolean gauge.
func SetFlag(v *atomic.Uint64, on bool) {
	if on {
		v.Store(1)
		return
	}
	v.Store(0)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
