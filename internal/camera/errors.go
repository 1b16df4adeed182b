package camera

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrNoFrame is returned when the surface has nothing to capture yet.
	ErrNoFrame = errors.New("no frame available")
)

// AccessError reports why a camera source could not be acquired. Kind is
// ErrPermissionDenied or ErrDeviceUnavailable.
type AccessError struct {
	Source string
	Kind   error
	Err    error
}

func (e *AccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *AccessError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func permissionDenied(source string, err error) *AccessError {
	return &AccessError{Source: source, Kind: ErrPermissionDenied, Err: err}
}

func unavailable(source string, err error) *AccessError {
	return &AccessError{Source: source, Kind: ErrDeviceUnavailable, Err: err}
}
