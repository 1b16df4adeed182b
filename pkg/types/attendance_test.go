package types

import (
	"encoding/json"
	"image"
	"testing"
)

func TestDetectionResponseDecode(t *testing.T) {
	body := `{"attendanceRecords":[{"name":"Alice","time":"09:00"}],"faceLocations":[[10,110,60,50]],"names":["Alice"]}`

	var resp DetectionResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(resp.Records()) != 1 || resp.Records()[0] != (AttendanceRecord{Name: "Alice", Time: "09:00"}) {
		t.Fatalf("records = %+v", resp.Records())
	}
	if len(resp.FaceLocations) != 1 {
		t.Fatalf("faceLocations = %+v", resp.FaceLocations)
	}
	loc := resp.FaceLocations[0]
	if loc.Top() != 10 || loc.Right() != 110 || loc.Bottom() != 60 || loc.Left() != 50 {
		t.Errorf("location = %v", loc)
	}
	if got, want := loc.Rect(), image.Rect(50, 10, 110, 60); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}
}

func TestDetectionResponseMissingRecords(t *testing.T) {
	var resp DetectionResponse
	if err := json.Unmarshal([]byte(`{"faceLocations":[],"names":[]}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	records := resp.Records()
	if records == nil || len(records) != 0 {
		t.Errorf("Records() = %#v, want empty non-nil slice", records)
	}

	var nilResp *DetectionResponse
	if len(nilResp.Records()) != 0 {
		t.Errorf("nil response should yield no records")
	}
}

func TestFaceLocationRejectsWrongArity(t *testing.T) {
	var loc FaceLocation
	if err := json.Unmarshal([]byte(`[1,2,3]`), &loc); err == nil {
		t.Error("expected error for 3 coordinates")
	}
	if err := json.Unmarshal([]byte(`"nope"`), &loc); err == nil {
		t.Error("expected error for non-array")
	}
}

func TestNameAt(t *testing.T) {
	names := []string{"Alice", ""}
	if got := NameAt(names, 0); got != "Alice" {
		t.Errorf("NameAt(0) = %q", got)
	}
	if got := NameAt(names, 1); got != UnknownName {
		t.Errorf("NameAt(1) = %q, want %q", got, UnknownName)
	}
	if got := NameAt(names, 5); got != UnknownName {
		t.Errorf("NameAt(5) = %q, want %q", got, UnknownName)
	}
	if got := NameAt(nil, 0); got != UnknownName {
		t.Errorf("NameAt(nil) = %q, want %q", got, UnknownName)
	}
}
