package camera

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mattn/go-mjpeg"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
)

const (
	displayQuality = 75
	idleInterval   = 500 * time.Millisecond
	// maxReadErrors consecutive read failures end the pump.
	maxReadErrors = 5
)

// Options tunes a Controller.
type Options struct {
	MaxFPS         int
	StreamInterval time.Duration
}

// Controller owns the camera: it binds a Source to the display surface and
// the MJPEG display stream, and releases it again.
type Controller struct {
	source  Source
	opts    Options
	metrics *metrics.Metrics

	surface *Surface
	stream  *mjpeg.Stream
	blank   []byte

	mu     sync.Mutex
	reader FrameReader
	cancel context.CancelFunc
	done   chan struct{}
	closed bool

	stopIdle chan struct{}
	idleDone chan struct{}
}

// NewController creates an unbound controller for source. m may be nil.
func NewController(source Source, opts Options, m *metrics.Metrics) *Controller {
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = 15
	}
	if opts.StreamInterval <= 0 {
		opts.StreamInterval = 66 * time.Millisecond
	}
	if m == nil {
		m = metrics.New()
	}

	c := &Controller{
		source:  source,
		opts:    opts,
		metrics: m,
		surface: &Surface{},
		stream:  mjpeg.NewStreamWithInterval(opts.StreamInterval),
	}
	blank, err := placeholderJPEG()
	if err != nil {
		logger.Warn("Camera", "Placeholder frame unavailable: %v", err)
	}
	c.blank = blank
	c.stopIdle = make(chan struct{})
	c.idleDone = make(chan struct{})
	go c.idle()
	return c
}

// idle keeps display stream clients fed with the placeholder while no source
// is bound.
func (c *Controller) idle() {
	defer close(c.idleDone)

	ticker := time.NewTicker(idleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopIdle:
			return
		case <-ticker.C:
			if c.blank == nil || c.Bound() || c.stream.NWatch() == 0 {
				continue
			}
			_ = c.stream.Update(c.blank)
		}
	}
}

// Surface returns the display surface frames are bound to.
func (c *Controller) Surface() *Surface {
	return c.surface
}

// Stream serves the live feed as MJPEG.
func (c *Controller) Stream() http.Handler {
	return c.stream
}

// Bound reports whether a source is currently bound.
func (c *Controller) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reader != nil
}

// Acquire opens the source and starts feeding the surface. On failure the
// surface stays unbound and an *AccessError is returned; there is no retry.
// Acquiring an already bound controller is a no-op.
func (c *Controller) Acquire(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return unavailable(c.source.String(), errors.New("controller closed"))
	}
	if c.reader != nil {
		return nil
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	stopOnCaller := context.AfterFunc(ctx, cancel)
	reader, err := c.source.Open(pumpCtx)
	if !stopOnCaller() && err == nil {
		// Caller gave up while the source was opening.
		_ = reader.Close()
		err = unavailable(c.source.String(), ctx.Err())
	}
	if err != nil {
		cancel()
		c.metrics.CameraErrors.Add(1)
		var ae *AccessError
		if !errors.As(err, &ae) {
			err = unavailable(c.source.String(), err)
		}
		logger.Error("Camera", "Error accessing camera: %v", err)
		return err
	}

	c.reader = reader
	c.cancel = cancel
	c.done = make(chan struct{})
	metrics.SetFlag(&c.metrics.CameraBound, true)
	logger.Info("Camera", "Bound camera source %s", c.source)

	go c.pump(pumpCtx, reader, c.done)
	return nil
}

// Release stops every frame read and closes the source. Safe to call when
// nothing is bound and more than once.
func (c *Controller) Release() error {
	c.mu.Lock()
	reader, cancel, done := c.reader, c.cancel, c.done
	c.reader, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()

	if reader == nil {
		return nil
	}

	// The pump must be out of ReadFrame before the reader is closed; device
	// readers free native buffers on Close.
	cancel()
	<-done
	err := reader.Close()

	c.surface.Clear()
	metrics.SetFlag(&c.metrics.CameraBound, false)
	logger.Info("Camera", "Released camera source %s", c.source)
	return err
}

// Close releases the camera and ends every display stream client.
func (c *Controller) Close() error {
	err := c.Release()

	c.mu.Lock()
	already := c.closed
	c.closed = true
	c.mu.Unlock()

	if !already {
		close(c.stopIdle)
		<-c.idleDone
		err = multierr.Append(err, c.stream.Close())
	}
	return err
}

func (c *Controller) pump(ctx context.Context, reader FrameReader, done chan struct{}) {
	defer close(done)

	limiter := rate.NewLimiter(rate.Limit(c.opts.MaxFPS), 1)
	failures := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		img, err := reader.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.metrics.CameraErrors.Add(1)
			failures++
			if errors.Is(err, io.EOF) || failures >= maxReadErrors {
				logger.Error("Camera", "Camera stream ended: %v", err)
				c.unbindAfterFailure(reader)
				return
			}
			logger.Warn("Camera", "Frame read error: %v", err)
			continue
		}
		failures = 0

		c.surface.Update(img)
		c.metrics.FramesCaptured.Add(1)

		if c.stream.NWatch() == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(displayQuality)); err != nil {
			logger.Debug("Camera", "Display encode error: %v", err)
			continue
		}
		_ = c.stream.Update(buf.Bytes())
	}
}

// unbindAfterFailure drops the binding from inside the pump. Release may race
// with it; whichever clears c.reader first owns the cleanup.
func (c *Controller) unbindAfterFailure(reader FrameReader) {
	c.mu.Lock()
	if c.reader != reader {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.reader, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()

	cancel()
	_ = reader.Close()
	c.surface.Clear()
	metrics.SetFlag(&c.metrics.CameraBound, false)
}
