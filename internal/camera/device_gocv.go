//go:build gocv

package camera

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

func init() {
	deviceOpener = openDevice
}

type deviceReader struct {
	webcam *gocv.VideoCapture
	frame  gocv.Mat
}

func openDevice(id int) (FrameReader, error) {
	source := fmt.Sprintf("device://%d", id)
	webcam, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, unavailable(source, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return nil, unavailable(source, errors.New("device did not open"))
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, 640)
	webcam.Set(gocv.VideoCaptureFrameHeight, 480)

	return &deviceReader{webcam: webcam, frame: gocv.NewMat()}, nil
}

func (d *deviceReader) ReadFrame() (image.Image, error) {
	if ok := d.webcam.Read(&d.frame); !ok {
		return nil, errors.New("cannot read frame")
	}
	if d.frame.Empty() {
		return nil, errors.New("frame is empty")
	}
	return d.frame.ToImage()
}

func (d *deviceReader) Close() error {
	d.frame.Close()
	return d.webcam.Close()
}
