package camera

import (
	"errors"
	"image"
	"testing"
)

func TestSurfaceEmpty(t *testing.T) {
	var s Surface
	if w, h := s.Dimensions(); w != 0 || h != 0 {
		t.Errorf("dimensions = %dx%d, want 0x0", w, h)
	}
	if _, err := s.Capture(80); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Capture err = %v, want ErrNoFrame", err)
	}
}

func TestSurfaceSequenceAdvances(t *testing.T) {
	var s Surface
	s.Update(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	first, err := s.Capture(80)
	if err != nil {
		t.Fatal(err)
	}
	s.Update(image.NewRGBA(image.Rect(0, 0, 8, 6)))
	second, err := s.Capture(80)
	if err != nil {
		t.Fatal(err)
	}
	if second.Seq <= first.Seq {
		t.Errorf("seq did not advance: %d then %d", first.Seq, second.Seq)
	}
	if second.Width != 8 || second.Height != 6 {
		t.Errorf("size = %dx%d", second.Width, second.Height)
	}
}

func TestSurfaceZeroSizedFrame(t *testing.T) {
	var s Surface
	s.Update(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if w, h := s.Dimensions(); w != 0 || h != 0 {
		t.Errorf("dimensions = %dx%d", w, h)
	}
	if _, err := s.Capture(80); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Capture err = %v, want ErrNoFrame", err)
	}
}

func TestPlaceholderJPEG(t *testing.T) {
	b, err := placeholderJPEG()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) < 2 || b[0] != 0xFF || b[1] != 0xD8 {
		t.Error("placeholder is not a JPEG")
	}
}
