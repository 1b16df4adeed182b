package detector

import (
	"errors"
	"fmt"
)

const (
	OpDetect = "detect-face"
	OpReset  = "reset-attendance"
)

// ErrBadStatus matches every RequestError caused by a non-2xx response.
var ErrBadStatus = errors.New("unexpected status")

// RequestError reports a failed call to the detection service. Err is set for
// transport and decoding failures, StatusCode for non-2xx responses.
type RequestError struct {
	Op         string
	RequestID  string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		if e.Message != "" {
			return fmt.Sprintf("%s: %s %d: %s", e.Op, ErrBadStatus, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: %s %d", e.Op, ErrBadStatus, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrBadStatus && e.StatusCode != 0
}

// IsDetectionError reports whether err came from a detect-face call.
func IsDetectionError(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Op == OpDetect
}

// IsResetError reports whether err came from a reset-attendance call.
func IsResetError(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Op == OpReset
}
