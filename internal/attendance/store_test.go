package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

type fakeResetter struct {
	err   error
	calls int
}

func (f *fakeResetter) ResetAttendance(ctx context.Context) error {
	f.calls++
	return f.err
}

func alice() []types.AttendanceRecord {
	return []types.AttendanceRecord{{Name: "Alice", Time: "09:00"}}
}

func TestReplaceSwapsWholeList(t *testing.T) {
	s := NewStore(&fakeResetter{}, nil)
	if got := s.Records(); len(got) != 0 {
		t.Fatalf("new store has %d records", len(got))
	}

	s.Replace(alice())
	s.Replace([]types.AttendanceRecord{{Name: "Bob", Time: "09:01"}, {Name: "Carol", Time: "09:02"}})

	got := s.Records()
	if len(got) != 2 || got[0].Name != "Bob" || got[1].Name != "Carol" {
		t.Errorf("records = %+v", got)
	}
}

func TestReplaceCopiesInput(t *testing.T) {
	s := NewStore(&fakeResetter{}, nil)
	in := alice()
	s.Replace(in)
	in[0].Name = "Mallory"

	if s.Records()[0].Name != "Alice" {
		t.Error("store aliased caller slice")
	}

	out := s.Records()
	out[0].Name = "Eve"
	if s.Records()[0].Name != "Alice" {
		t.Error("Records() exposed internal slice")
	}
}

func TestResetEmptiesStoreAndIsIdempotent(t *testing.T) {
	m := metrics.New()
	r := &fakeResetter{}
	s := NewStore(r, m)
	s.Replace(alice())

	for i := 0; i < 2; i++ {
		if err := s.Reset(context.Background()); err != nil {
			t.Fatalf("Reset #%d: %v", i+1, err)
		}
		if got := s.Records(); len(got) != 0 {
			t.Fatalf("after reset #%d records = %+v", i+1, got)
		}
	}
	if r.calls != 2 {
		t.Errorf("resetter calls = %d, want 2", r.calls)
	}
	if m.Resets.Load() != 2 {
		t.Errorf("resets metric = %d, want 2", m.Resets.Load())
	}
}

func TestResetFailureKeepsRecords(t *testing.T) {
	m := metrics.New()
	boom := errors.New("boom")
	s := NewStore(&fakeResetter{err: boom}, m)
	s.Replace(alice())
	before := s.Version()

	if err := s.Reset(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Reset err = %v, want boom", err)
	}
	if got := s.Records(); len(got) != 1 || got[0].Name != "Alice" {
		t.Errorf("records after failed reset = %+v", got)
	}
	if s.Version() != before {
		t.Error("version changed on failed reset")
	}
	if m.ResetFailures.Load() != 1 {
		t.Errorf("reset failures = %d, want 1", m.ResetFailures.Load())
	}
}

func TestSubscribersAreNotified(t *testing.T) {
	s := NewStore(&fakeResetter{}, nil)
	id, ch := s.Subscribe()

	s.Replace(alice())
	s.Replace(alice()) // coalesced with the pending notification

	select {
	case <-ch:
	default:
		t.Fatal("no notification after Replace")
	}
	select {
	case <-ch:
		t.Fatal("notifications were not coalesced")
	default:
	}

	s.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel not closed after Unsubscribe")
	}
	s.Unsubscribe(id)
}
