package camera

import (
	"bytes"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Surface holds the most recent frame of the bound camera.
type Surface struct {
	mu    sync.RWMutex
	frame image.Image
	seq   uint64
}

// Snapshot is one captured frame encoded as JPEG.
type Snapshot struct {
	JPEG   []byte
	Width  int
	Height int
	Seq    uint64
}

// Update publishes a new frame. Frames must not be modified after Update.
func (s *Surface) Update(img image.Image) {
	s.mu.Lock()
	s.frame = img
	s.seq++
	s.mu.Unlock()
}

// Clear unbinds the surface; Dimensions reports zero afterwards.
func (s *Surface) Clear() {
	s.mu.Lock()
	s.frame = nil
	s.mu.Unlock()
}

// Dimensions returns the current frame size, or 0, 0 when nothing is playing.
func (s *Surface) Dimensions() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return 0, 0
	}
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

// Frame returns the current frame and its sequence number.
func (s *Surface) Frame() (image.Image, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.seq, s.frame != nil
}

// Capture paints the current frame onto an off-screen raster of the same size
// and encodes it as JPEG at the given quality (1-100).
func (s *Surface) Capture(quality int) (*Snapshot, error) {
	frame, seq, ok := s.Frame()
	if !ok {
		return nil, ErrNoFrame
	}
	b := frame.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ErrNoFrame
	}

	raster := imaging.Clone(frame)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, raster, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return &Snapshot{
		JPEG:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
		Seq:    seq,
	}, nil
}
