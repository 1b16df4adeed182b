// Package overlay draws face boxes and name labels on a transparent surface
// that sits on top of the live video.
package overlay

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

// LabelOffset is the gap between a label's baseline and the top edge of its box.
const LabelOffset = 5

var regular *truetype.Font

func init() {
	var err error
	regular, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Style controls how boxes and labels look.
type Style struct {
	Color       string // hex, e.g. "#00FF00"
	StrokeWidth float64
	FontSize    float64
}

// DefaultStyle matches the kiosk page: 2px green boxes, 16px labels.
func DefaultStyle() Style {
	return Style{Color: "#00FF00", StrokeWidth: 2, FontSize: 16}
}

// Box is one drawn face: its rectangle, label text and label baseline origin.
type Box struct {
	Rect  image.Rectangle `json:"rect"`
	Label string          `json:"label"`
	At    image.Point     `json:"at"`
}

// Result describes what the last Render call drew.
type Result struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Boxes  []Box `json:"boxes"`
}

// Renderer owns the drawing surface.
type Renderer struct {
	mu    sync.Mutex
	style Style
	face  font.Face
	dc    *gg.Context
	last  Result
}

// NewRenderer creates a transparent width x height surface.
func NewRenderer(width, height int, style Style) *Renderer {
	r := &Renderer{
		style: style,
		face:  truetype.NewFace(regular, &truetype.Options{Size: style.FontSize}),
	}
	r.dc = gg.NewContext(width, height)
	r.last = Result{Width: width, Height: height, Boxes: []Box{}}
	return r
}

// Resize replaces the surface with a cleared one of the given size. Non-positive
// dimensions and unchanged sizes are ignored.
func (r *Renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dc.Width() == width && r.dc.Height() == height {
		return
	}
	r.dc = gg.NewContext(width, height)
	r.last = Result{Width: width, Height: height, Boxes: []Box{}}
}

// Render clears the surface and draws one box per location. names[i] labels
// locations[i]; a missing or empty name is drawn as "Unknown".
func (r *Renderer) Render(locations []types.FaceLocation, names []string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.dc
	dc.SetColor(color.Transparent)
	dc.Clear()

	dc.SetHexColor(r.style.Color)
	dc.SetLineWidth(r.style.StrokeWidth)
	dc.SetFontFace(r.face)

	boxes := make([]Box, 0, len(locations))
	for i, loc := range locations {
		rect := loc.Rect()
		dc.DrawRectangle(float64(loc.Left()), float64(loc.Top()),
			float64(loc.Right()-loc.Left()), float64(loc.Bottom()-loc.Top()))
		dc.Stroke()

		label := types.NameAt(names, i)
		at := image.Pt(loc.Left(), loc.Top()-LabelOffset)
		dc.DrawString(label, float64(at.X), float64(at.Y))

		boxes = append(boxes, Box{Rect: rect, Label: label, At: at})
	}

	r.last = Result{Width: dc.Width(), Height: dc.Height(), Boxes: boxes}
	return r.last
}

// Clear wipes the surface.
func (r *Renderer) Clear() {
	r.Render(nil, nil)
}

// Last returns what the most recent Render drew.
func (r *Renderer) Last() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	boxes := make([]Box, len(r.last.Boxes))
	copy(boxes, r.last.Boxes)
	res := r.last
	res.Boxes = boxes
	return res
}

// Image returns a copy of the surface.
func (r *Renderer) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.dc.Image().(*image.RGBA)
	if !ok {
		return nil
	}
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// EncodePNG writes the surface as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.EncodePNG(w)
}
