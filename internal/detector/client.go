// Package detector talks to the remote face detection service.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

const (
	DetectPath = "/api/detect-face"
	ResetPath  = "/api/reset-attendance"

	imageField    = "image"
	imageFilename = "capture.jpg"

	// maxErrorBody bounds how much of a failed response is kept for logging.
	maxErrorBody = 512
)

// Client calls the detect-face and reset-attendance endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A zero timeout leaves requests unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DetectFace submits one JPEG frame and decodes the detection response.
func (c *Client) DetectFace(ctx context.Context, jpegData []byte) (*types.DetectionResponse, error) {
	body, contentType, err := multipartImage(jpegData)
	if err != nil {
		return nil, &RequestError{Op: OpDetect, Err: err}
	}

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DetectPath, body)
	if err != nil {
		return nil, &RequestError{Op: OpDetect, RequestID: reqID, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: OpDetect, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(OpDetect, reqID, resp)
	}

	var result types.DetectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Op: OpDetect, RequestID: reqID, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if result.AttendanceRecords == nil {
		result.AttendanceRecords = []types.AttendanceRecord{}
	}
	return &result, nil
}

// ResetAttendance asks the service to forget every attendance record.
func (c *Client) ResetAttendance(ctx context.Context) error {
	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ResetPath, http.NoBody)
	if err != nil {
		return &RequestError{Op: OpReset, RequestID: reqID, Err: err}
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: OpReset, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(OpReset, reqID, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func multipartImage(jpegData []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(imageField, imageFilename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(jpegData); err != nil {
		return nil, "", fmt.Errorf("writing image part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func statusError(op, reqID string, resp *http.Response) *RequestError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(data))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	return &RequestError{
		Op:         op,
		RequestID:  reqID,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
