// Package kiosk is the attendance kiosk shell: it wires camera, detection
// loop, overlay and attendance store together and serves the web page.
package kiosk

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/dj-oyu/face-attendance-kiosk/internal/attendance"
	"github.com/dj-oyu/face-attendance-kiosk/internal/camera"
	"github.com/dj-oyu/face-attendance-kiosk/internal/checker"
	"github.com/dj-oyu/face-attendance-kiosk/internal/config"
	"github.com/dj-oyu/face-attendance-kiosk/internal/detector"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
	"github.com/dj-oyu/face-attendance-kiosk/internal/overlay"
)

// Option customizes a Shell.
type Option func(*shellOptions)

type shellOptions struct {
	clock    clock.Clock
	detector checker.Detector
	resetter attendance.Resetter
}

// WithClock drives the detection loop from clk.
func WithClock(clk clock.Clock) Option {
	return func(o *shellOptions) { o.clock = clk }
}

// WithDetector replaces the HTTP detection client.
func WithDetector(d checker.Detector) Option {
	return func(o *shellOptions) { o.detector = d }
}

// WithResetter replaces the HTTP reset client.
func WithResetter(r attendance.Resetter) Option {
	return func(o *shellOptions) { o.resetter = r }
}

// Shell owns every kiosk component for the lifetime of the page.
type Shell struct {
	cfg     config.Config
	metrics *metrics.Metrics

	camera   *camera.Controller
	store    *attendance.Store
	renderer *overlay.Renderer
	checker  *checker.Checker
	events   *StateBroadcaster
	eventsID int

	closeOnce sync.Once
	closeErr  error
}

// New builds a shell from cfg. Nothing is acquired until Open.
func New(cfg config.Config, m *metrics.Metrics, opts ...Option) (*Shell, error) {
	var o shellOptions
	for _, opt := range opts {
		opt(&o)
	}
	if m == nil {
		m = metrics.New()
	}

	source, err := camera.NewSource(cfg.Camera.Source)
	if err != nil {
		return nil, fmt.Errorf("camera source: %w", err)
	}

	client := detector.NewClient(cfg.Detect.BaseURL, cfg.Detect.RequestTimeout)
	if o.detector == nil {
		o.detector = client
	}
	if o.resetter == nil {
		o.resetter = client
	}

	s := &Shell{cfg: cfg, metrics: m}
	s.camera = camera.NewController(source, camera.Options{
		MaxFPS:         cfg.Camera.MaxFPS,
		StreamInterval: cfg.Camera.StreamInterval,
	}, m)
	s.store = attendance.NewStore(o.resetter, m)
	s.renderer = overlay.NewRenderer(cfg.Overlay.Width, cfg.Overlay.Height, overlay.Style{
		Color:       cfg.Overlay.Color,
		StrokeWidth: cfg.Overlay.StrokeWidth,
		FontSize:    cfg.Overlay.FontSize,
	})
	s.checker = checker.New(o.detector, s.camera.Surface(), s.store, s.renderer, m, checker.Options{
		Interval:     cfg.Detect.Interval,
		JPEGQuality:  cfg.Detect.JPEGQuality,
		DiscardStale: cfg.Detect.DiscardStale,
		Clock:        o.clock,
		OnApply:      s.store.Notify,
	})

	id, changes := s.store.Subscribe()
	s.eventsID = id
	s.events = NewStateBroadcaster(s.State, changes)
	return s, nil
}

// Open acquires the camera and starts the event stream. A camera failure is
// logged and returned, but the shell stays usable without video. Opening
// again is harmless.
func (s *Shell) Open(ctx context.Context) error {
	s.events.Start()

	err := s.camera.Acquire(ctx)
	if err != nil {
		logger.Warn("Kiosk", "Running without camera: %v", err)
	}
	s.store.Notify()
	return err
}

// Close stops checking and releases the camera. Safe to call on every exit
// path and more than once.
func (s *Shell) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = multierr.Combine(
			s.checker.Close(),
			s.camera.Close(),
		)
		s.events.Stop()
		s.store.Unsubscribe(s.eventsID)
		logger.Info("Kiosk", "Shell closed")
	})
	return s.closeErr
}

// StartChecking arms the detection loop. It reports whether anything changed.
func (s *Shell) StartChecking() bool {
	changed := s.checker.Start()
	if changed {
		s.store.Notify()
	}
	return changed
}

// StopChecking disarms the detection loop. It reports whether anything changed.
func (s *Shell) StopChecking() bool {
	changed := s.checker.Stop()
	if changed {
		s.store.Notify()
	}
	return changed
}

// ResetAttendance clears attendance on the service and in the table.
func (s *Shell) ResetAttendance(ctx context.Context) error {
	return s.store.Reset(ctx)
}

// State reports what the page shows right now.
func (s *Shell) State() State {
	w, h := s.camera.Surface().Dimensions()
	return State{
		Checking:          s.checker.Checking(),
		CameraBound:       s.camera.Bound(),
		Frame:             FrameSize{Width: w, Height: h},
		Faces:             len(s.renderer.Last().Boxes),
		AttendanceRecords: s.store.Records(),
	}
}

// Checker exposes the detection loop.
func (s *Shell) Checker() *checker.Checker { return s.checker }

// Camera exposes the camera controller.
func (s *Shell) Camera() *camera.Controller { return s.camera }

// Renderer exposes the overlay.
func (s *Shell) Renderer() *overlay.Renderer { return s.renderer }
