package overlay

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

func opaqueIn(img *image.RGBA, r image.Rectangle) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).A > 0 {
				return true
			}
		}
	}
	return false
}

func TestRenderAliceScenario(t *testing.T) {
	r := NewRenderer(640, 480, DefaultStyle())

	res := r.Render([]types.FaceLocation{types.NewFaceLocation(10, 110, 60, 50)}, []string{"Alice"})

	if len(res.Boxes) != 1 {
		t.Fatalf("boxes = %d, want 1", len(res.Boxes))
	}
	box := res.Boxes[0]
	if box.Rect != image.Rect(50, 10, 110, 60) {
		t.Errorf("rect = %v, want (50,10)-(110,60)", box.Rect)
	}
	if box.Label != "Alice" {
		t.Errorf("label = %q", box.Label)
	}
	if box.At != image.Pt(50, 5) {
		t.Errorf("label anchor = %v, want (50,5)", box.At)
	}

	img := r.Image()
	edge := img.RGBAAt(80, 10)
	if edge.A < 128 || edge.G < edge.R || edge.G < edge.B {
		t.Errorf("top edge pixel = %+v, want green stroke", edge)
	}
	if left := img.RGBAAt(50, 35); left.A < 128 {
		t.Errorf("left edge pixel = %+v, want stroke", left)
	}
	if inside := img.RGBAAt(80, 35); inside.A != 0 {
		t.Errorf("interior pixel = %+v, want transparent (unfilled box)", inside)
	}
	if !opaqueIn(img, image.Rect(50, 0, 100, 6)) {
		t.Error("no label ink above the box")
	}
	if opaqueIn(img, image.Rect(200, 200, 640, 480)) {
		t.Error("unexpected drawing far from the box")
	}
}

func TestRenderBoxCountMatchesLocations(t *testing.T) {
	r := NewRenderer(640, 480, DefaultStyle())
	locs := []types.FaceLocation{
		types.NewFaceLocation(10, 110, 60, 50),
		types.NewFaceLocation(100, 300, 200, 200),
		types.NewFaceLocation(300, 500, 400, 400),
	}
	names := []string{"Alice", "Bob", "Carol"}

	res := r.Render(locs, names)
	if len(res.Boxes) != len(locs) {
		t.Fatalf("boxes = %d, want %d", len(res.Boxes), len(locs))
	}
	for i, b := range res.Boxes {
		if b.Label != names[i] {
			t.Errorf("box %d label = %q, want %q", i, b.Label, names[i])
		}
		if b.Rect != locs[i].Rect() {
			t.Errorf("box %d rect = %v, want %v", i, b.Rect, locs[i].Rect())
		}
	}
}

func TestRenderMissingNamesAreUnknown(t *testing.T) {
	r := NewRenderer(640, 480, DefaultStyle())
	locs := []types.FaceLocation{
		types.NewFaceLocation(10, 110, 60, 50),
		types.NewFaceLocation(100, 300, 200, 200),
	}

	res := r.Render(locs, []string{"Alice"})
	if got := res.Boxes[1].Label; got != "Unknown" {
		t.Errorf("label = %q, want Unknown", got)
	}

	res = r.Render(locs, nil)
	for i, b := range res.Boxes {
		if b.Label != "Unknown" {
			t.Errorf("box %d label = %q, want Unknown", i, b.Label)
		}
	}
}

func TestRenderEmptyClearsSurface(t *testing.T) {
	r := NewRenderer(320, 240, DefaultStyle())
	r.Render([]types.FaceLocation{types.NewFaceLocation(10, 110, 60, 50)}, []string{"Alice"})

	res := r.Render(nil, nil)
	if len(res.Boxes) != 0 {
		t.Errorf("boxes = %d, want 0", len(res.Boxes))
	}
	if opaqueIn(r.Image(), image.Rect(0, 0, 320, 240)) {
		t.Error("surface not cleared")
	}
}

func TestResize(t *testing.T) {
	r := NewRenderer(640, 480, DefaultStyle())
	r.Render([]types.FaceLocation{types.NewFaceLocation(10, 110, 60, 50)}, nil)

	r.Resize(1280, 720)
	if b := r.Image().Bounds(); b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("bounds = %v, want 1280x720", b)
	}
	if last := r.Last(); len(last.Boxes) != 0 || last.Width != 1280 {
		t.Errorf("last = %+v, want cleared 1280-wide result", last)
	}

	r.Resize(0, 10)
	if b := r.Image().Bounds(); b.Dx() != 1280 {
		t.Errorf("invalid resize applied: %v", b)
	}
}

func TestEncodePNG(t *testing.T) {
	r := NewRenderer(64, 48, DefaultStyle())
	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}
