// Package checker runs the periodic capture/detect loop that drives the
// attendance table and the face overlay.
package checker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dj-oyu/face-attendance-kiosk/internal/camera"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
	"github.com/dj-oyu/face-attendance-kiosk/internal/overlay"
	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

// Detector submits one encoded frame for face detection.
type Detector interface {
	DetectFace(ctx context.Context, jpeg []byte) (*types.DetectionResponse, error)
}

// FrameSource is the display surface the loop captures from.
type FrameSource interface {
	Dimensions() (int, int)
	Capture(quality int) (*camera.Snapshot, error)
}

// Store receives the attendance list of every applied response.
type Store interface {
	Replace(records []types.AttendanceRecord)
}

// Renderer draws the faces of every applied response.
type Renderer interface {
	Resize(width, height int)
	Render(locations []types.FaceLocation, names []string) overlay.Result
}

// Options configures a Checker.
type Options struct {
	Interval     time.Duration
	JPEGQuality  int
	DiscardStale bool
	// Clock drives the tick timer; nil uses the wall clock.
	Clock clock.Clock
	// OnApply runs after a response has been applied to store and overlay.
	OnApply func()
}

// Checker is idle until Start and checking until Stop.
type Checker struct {
	detector Detector
	frames   FrameSource
	store    Store
	renderer Renderer
	metrics  *metrics.Metrics
	opts     Options
	clock    clock.Clock

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu         sync.Mutex
	checking   bool
	closed     bool
	gen        uint64
	stopLoop   context.CancelFunc
	cancelReqs context.CancelFunc

	seq atomic.Uint64

	applyMu sync.Mutex
	applied uint64

	loops    sync.WaitGroup
	inflight sync.WaitGroup
}

// New returns an idle checker. m may be nil.
func New(d Detector, frames FrameSource, store Store, renderer Renderer, m *metrics.Metrics, opts Options) *Checker {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 80
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	if m == nil {
		m = metrics.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Checker{
		detector:   d,
		frames:     frames,
		store:      store,
		renderer:   renderer,
		metrics:    m,
		opts:       opts,
		clock:      clk,
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Checking reports whether the loop is armed.
func (c *Checker) Checking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checking
}

// Start arms the repeating capture task. It returns false, changing nothing,
// when the checker is already checking or closed.
func (c *Checker) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checking || c.closed {
		return false
	}

	c.gen++
	gen := c.gen

	loopCtx, stopLoop := context.WithCancel(c.rootCtx)
	reqCtx, cancelReqs := c.rootCtx, context.CancelFunc(func() {})
	if c.opts.DiscardStale {
		reqCtx, cancelReqs = context.WithCancel(c.rootCtx)
	}
	c.stopLoop = stopLoop
	c.cancelReqs = cancelReqs
	c.checking = true
	metrics.SetFlag(&c.metrics.Checking, true)

	ticker := c.clock.Ticker(c.opts.Interval)
	c.loops.Add(1)
	go c.loop(loopCtx, reqCtx, gen, ticker)

	logger.Info("Checker", "Attendance checking started (interval %s)", c.opts.Interval)
	return true
}

// Stop disarms the task. In-flight requests are cancelled when stale
// responses are discarded. Stop while idle is a no-op and returns false.
func (c *Checker) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Checker) stopLocked() bool {
	if !c.checking {
		return false
	}
	c.checking = false
	c.stopLoop()
	c.cancelReqs()
	metrics.SetFlag(&c.metrics.Checking, false)
	logger.Info("Checker", "Attendance checking stopped")
	return true
}

// Close stops the loop, cancels every request and waits for all of them.
func (c *Checker) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked()
	c.closed = true
	c.mu.Unlock()

	c.rootCancel()
	c.loops.Wait()
	c.inflight.Wait()
	return nil
}

func (c *Checker) loop(ctx, reqCtx context.Context, gen uint64, ticker *clock.Ticker) {
	defer c.loops.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(reqCtx, gen)
		}
	}
}

// tick captures one frame and submits it without waiting for the answer.
func (c *Checker) tick(ctx context.Context, gen uint64) {
	snap, ok := c.capture()
	if !ok {
		return
	}

	seq := c.seq.Add(1)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		resp, err := c.submit(ctx, snap)
		if err != nil {
			if ctx.Err() != nil {
				c.metrics.DetectStale.Add(1)
				logger.Debug("Checker", "Detection request #%d cancelled", seq)
				return
			}
			logger.Error("Checker", "Error during face detection: %v", err)
			return
		}
		c.apply(gen, seq, snap, resp)
	}()
}

func (c *Checker) capture() (*camera.Snapshot, bool) {
	w, h := c.frames.Dimensions()
	if w == 0 || h == 0 {
		c.metrics.TicksSkipped.Add(1)
		logger.Debug("Checker", "No frame to capture, skipping tick")
		return nil, false
	}

	snap, err := c.frames.Capture(c.opts.JPEGQuality)
	if err != nil {
		c.metrics.TicksSkipped.Add(1)
		if !errors.Is(err, camera.ErrNoFrame) {
			logger.Warn("Checker", "Frame capture failed: %v", err)
		}
		return nil, false
	}
	return snap, true
}

func (c *Checker) submit(ctx context.Context, snap *camera.Snapshot) (*types.DetectionResponse, error) {
	c.metrics.DetectRequests.Add(1)
	start := c.clock.Now()
	resp, err := c.detector.DetectFace(ctx, snap.JPEG)
	c.metrics.UpdateDetectLatency(c.clock.Since(start))
	if err != nil {
		if ctx.Err() == nil {
			c.metrics.DetectFailures.Add(1)
		}
		return nil, err
	}
	return resp, nil
}

// apply writes a response to the store and overlay unless it is stale.
func (c *Checker) apply(gen, seq uint64, snap *camera.Snapshot, resp *types.DetectionResponse) bool {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if c.opts.DiscardStale {
		c.mu.Lock()
		current := c.checking && c.gen == gen
		c.mu.Unlock()
		if !current || seq <= c.applied {
			c.metrics.DetectStale.Add(1)
			logger.Debug("Checker", "Discarding stale detection response #%d", seq)
			return false
		}
	}
	if seq > c.applied {
		c.applied = seq
	}

	c.applyResponse(snap, resp)
	return true
}

func (c *Checker) applyResponse(snap *camera.Snapshot, resp *types.DetectionResponse) overlay.Result {
	records := resp.Records()
	c.store.Replace(records)

	c.renderer.Resize(snap.Width, snap.Height)
	result := c.renderer.Render(resp.FaceLocations, resp.Names)

	c.metrics.FacesLastResponse.Store(uint64(len(result.Boxes)))
	logger.Debug("Checker", "Applied detection: %d faces, %d records", len(result.Boxes), len(records))

	if c.opts.OnApply != nil {
		c.opts.OnApply()
	}
	return result
}

// CheckOnce captures the current frame, submits it and applies the response
// synchronously, whether or not the loop is armed. Its response counts as the
// newest one: with DiscardStale, tick responses still in flight when it applies
// are discarded as stale.
func (c *Checker) CheckOnce(ctx context.Context) (*types.DetectionResponse, overlay.Result, error) {
	w, h := c.frames.Dimensions()
	if w == 0 || h == 0 {
		return nil, overlay.Result{}, camera.ErrNoFrame
	}
	snap, err := c.frames.Capture(c.opts.JPEGQuality)
	if err != nil {
		return nil, overlay.Result{}, err
	}

	resp, err := c.submit(ctx, snap)
	if err != nil {
		logger.Error("Checker", "Error during face detection: %v", err)
		return nil, overlay.Result{}, err
	}

	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	c.applied = c.seq.Add(1)
	return resp, c.applyResponse(snap, resp), nil
}
