package types

import (
	"encoding/json"
	"fmt"
	"image"
)

// UnknownName labels a face the detection service returned no name for.
const UnknownName = "Unknown"

// AttendanceRecord is a recognized person and the time the server first saw them.
type AttendanceRecord struct {
	Name string `json:"name"`
	Time string `json:"time"`
}

// FaceLocation is a face bounding box in frame pixels, ordered (top, right, bottom, left).
type FaceLocation [4]int

// NewFaceLocation builds a location from its four edges.
func NewFaceLocation(top, right, bottom, left int) FaceLocation {
	return FaceLocation{top, right, bottom, left}
}

func (l FaceLocation) Top() int    { return l[0] }
func (l FaceLocation) Right() int  { return l[1] }
func (l FaceLocation) Bottom() int { return l[2] }
func (l FaceLocation) Left() int   { return l[3] }

// Rect returns the box as (left, top)-(right, bottom).
func (l FaceLocation) Rect() image.Rectangle {
	return image.Rect(l.Left(), l.Top(), l.Right(), l.Bottom())
}

// UnmarshalJSON accepts exactly four numbers.
func (l *FaceLocation) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("face location: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("face location: want 4 coordinates, got %d", len(raw))
	}
	for i, v := range raw {
		l[i] = int(v)
	}
	return nil
}

// DetectionResponse is the body returned by the face detection endpoint.
// FaceLocations[i] corresponds to Names[i].
type DetectionResponse struct {
	AttendanceRecords []AttendanceRecord `json:"attendanceRecords"`
	FaceLocations     []FaceLocation     `json:"faceLocations"`
	Names             []string           `json:"names"`
}

// Records returns the attendance records, never nil.
func (r *DetectionResponse) Records() []AttendanceRecord {
	if r == nil || r.AttendanceRecords == nil {
		return []AttendanceRecord{}
	}
	return r.AttendanceRecords
}

// NameAt returns the label for the i-th face, or UnknownName when absent or empty.
func NameAt(names []string, i int) string {
	if i < 0 || i >= len(names) || names[i] == "" {
		return UnknownName
	}
	return names[i]
}
