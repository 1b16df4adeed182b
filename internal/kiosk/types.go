package kiosk

import "github.com/dj-oyu/face-attendance-kiosk/pkg/types"

// FrameSize is the size of the frame currently on the display surface.
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is the payload of /api/state and every /api/events message.
type State struct {
	Checking          bool                     `json:"checking"`
	CameraBound       bool                     `json:"camera_bound"`
	Frame             FrameSize                `json:"frame"`
	Faces             int                      `json:"faces"`
	AttendanceRecords []types.AttendanceRecord `json:"attendanceRecords"`
}

// asMap mirrors the JSON shape with plain values so it can be carried in a
// protobuf Struct.
func (s State) asMap() map[string]any {
	records := make([]any, len(s.AttendanceRecords))
	for i, r := range s.AttendanceRecords {
		records[i] = map[string]any{"name": r.Name, "time": r.Time}
	}
	return map[string]any{
		"checking":     s.Checking,
		"camera_bound": s.CameraBound,
		"frame": map[string]any{
			"width":  s.Frame.Width,
			"height": s.Frame.Height,
		},
		"faces":             s.Faces,
		"attendanceRecords": records,
	}
}
