package apicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dj-oyu/face-attendance-kiosk/internal/detector"
)

const defaultRequestTimeout = 10 * time.Second

type liveBackend struct {
	baseURL string
	http    *http.Client
	client  *detector.Client
}

// newLiveBackend skips the test unless DETECTOR_BASE_URL points at a running
// detection service.
func newLiveBackend(t *testing.T) *liveBackend {
	t.Helper()
	baseURL := os.Getenv("DETECTOR_BASE_URL")
	if baseURL == "" {
		t.Skip("DETECTOR_BASE_URL not set")
	}
	httpClient := &http.Client{Timeout: defaultRequestTimeout}
	if !isReachable(httpClient, baseURL) {
		t.Skipf("detection service not reachable at %s", baseURL)
	}
	return &liveBackend{
		baseURL: baseURL,
		http:    httpClient,
		client:  detector.NewClient(baseURL, defaultRequestTimeout),
	}
}

func isReachable(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < 500
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// blankJPEG is a frame without faces.
func blankJPEG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(640, 480, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

func (b *liveBackend) postRaw(t *testing.T, path, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(testContext(t), http.MethodPost, b.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	_ = resp.Body.Close()
	return resp, data
}

func decodeJSONMap(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode json: %v\nbody=%s", err, string(body))
	}
	return payload
}

func requireString(t *testing.T, value any, field string) string {
	t.Helper()
	str, ok := value.(string)
	if !ok {
		t.Fatalf("expected %s to be string, got %T", field, value)
	}
	return str
}

func requireSlice(t *testing.T, value any, field string) []any {
	t.Helper()
	s, ok := value.([]any)
	if !ok {
		t.Fatalf("expected %s to be array, got %T", field, value)
	}
	return s
}

func assertDetectionPayload(t *testing.T, payload map[string]any) {
	t.Helper()
	records := requireSlice(t, payload["attendanceRecords"], "attendanceRecords")
	for _, raw := range records {
		rec, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("attendance record is %T", raw)
		}
		requireString(t, rec["name"], "attendanceRecords.name")
		requireString(t, rec["time"], "attendanceRecords.time")
	}

	locations := requireSlice(t, payload["faceLocations"], "faceLocations")
	names := requireSlice(t, payload["names"], "names")
	if len(locations) != len(names) {
		t.Fatalf("faceLocations (%d) and names (%d) differ in length", len(locations), len(names))
	}
	for _, raw := range locations {
		if loc := requireSlice(t, raw, "faceLocations[i]"); len(loc) != 4 {
			t.Fatalf("face location has %d values, want 4", len(loc))
		}
	}
}
