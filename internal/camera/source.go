package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mattn/go-mjpeg"
)

// FrameReader yields decoded frames until closed.
type FrameReader interface {
	ReadFrame() (image.Image, error)
	Close() error
}

// Source opens a FrameReader.
type Source interface {
	Open(ctx context.Context) (FrameReader, error)
	String() string
}

// NewSource picks a source from locator:
//
//	http(s)://host/path  MJPEG stream
//	file:///path or path still image repeated as a live feed
//	device://N           local capture device (requires the gocv build tag)
func NewSource(locator string) (Source, error) {
	if locator == "" {
		return nil, errors.New("empty camera source")
	}
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" {
		return &stillSource{path: locator}, nil
	}

	switch u.Scheme {
	case "http", "https":
		return &mjpegSource{url: locator, client: http.DefaultClient}, nil
	case "file":
		return &stillSource{path: u.Path}, nil
	case "device":
		id, err := strconv.Atoi(strings.TrimPrefix(u.Host+u.Path, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid device id in %q: %w", locator, err)
		}
		return &deviceSource{id: id}, nil
	default:
		return nil, fmt.Errorf("unsupported camera source scheme %q", u.Scheme)
	}
}

// mjpegSource reads a multipart/x-mixed-replace camera stream.
type mjpegSource struct {
	url    string
	client *http.Client
}

func (s *mjpegSource) String() string { return s.url }

func (s *mjpegSource) Open(ctx context.Context) (FrameReader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, unavailable(s.url, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, unavailable(s.url, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, permissionDenied(s.url, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, unavailable(s.url, fmt.Errorf("status %d", resp.StatusCode))
	}

	dec, err := mjpeg.NewDecoderFromResponse(resp)
	if err != nil {
		resp.Body.Close()
		return nil, unavailable(s.url, err)
	}
	return &mjpegReader{dec: dec, resp: resp}, nil
}

type mjpegReader struct {
	dec  *mjpeg.Decoder
	resp *http.Response
}

func (r *mjpegReader) ReadFrame() (image.Image, error) { return r.dec.Decode() }
func (r *mjpegReader) Close() error                    { return r.resp.Body.Close() }

// stillSource serves one decoded image as every frame.
type stillSource struct {
	path string
}

func (s *stillSource) String() string { return s.path }

func (s *stillSource) Open(ctx context.Context) (FrameReader, error) {
	img, err := imaging.Open(s.path)
	switch {
	case errors.Is(err, fs.ErrPermission):
		return nil, permissionDenied(s.path, err)
	case err != nil:
		return nil, unavailable(s.path, err)
	}
	return &stillReader{img: img}, nil
}

type stillReader struct {
	img image.Image
}

func (r *stillReader) ReadFrame() (image.Image, error) { return r.img, nil }
func (r *stillReader) Close() error                    { return nil }

// deviceOpener is replaced when built with gocv.
var deviceOpener = func(id int) (FrameReader, error) {
	return nil, errors.New("built without gocv support (rebuild with -tags gocv)")
}

type deviceSource struct {
	id int
}

func (s *deviceSource) String() string { return fmt.Sprintf("device://%d", s.id) }

func (s *deviceSource) Open(ctx context.Context) (FrameReader, error) {
	r, err := deviceOpener(s.id)
	if err != nil {
		var ae *AccessError
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, unavailable(s.String(), err)
	}
	return r, nil
}
