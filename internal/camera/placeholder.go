package camera

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Color bars shown on the display stream while no camera is bound.
var barColors = []color.NRGBA{
	{R: 255, G: 255, B: 255, A: 255},
	{R: 255, G: 255, B: 0, A: 255},
	{R: 0, G: 255, B: 255, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 255, G: 0, B: 255, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 0, B: 0, A: 255},
}

func placeholderJPEG() ([]byte, error) {
	const w, h = 640, 480
	img := imaging.New(w, h, color.NRGBA{A: 255})

	barWidth := w / len(barColors)
	for i, c := range barColors {
		r := image.Rect(i*barWidth, 0, (i+1)*barWidth, h)
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(displayQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
