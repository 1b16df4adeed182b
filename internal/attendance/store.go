// Package attendance holds the attendance records last reported by the
// detection service.
package attendance

import (
	"context"
	"sync"

	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
	"github.com/dj-oyu/face-attendance-kiosk/internal/metrics"
	"github.com/dj-oyu/face-attendance-kiosk/pkg/types"
)

// Resetter clears attendance on the detection service.
type Resetter interface {
	ResetAttendance(ctx context.Context) error
}

// Store is the in-memory attendance list. The list is only ever replaced
// wholesale or cleared.
type Store struct {
	resetter Resetter
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	records []types.AttendanceRecord
	version uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewStore returns an empty store. m may be nil.
func NewStore(resetter Resetter, m *metrics.Metrics) *Store {
	return &Store{
		resetter: resetter,
		metrics:  m,
		records:  []types.AttendanceRecord{},
		subs:     make(map[int]chan struct{}),
	}
}

// Replace swaps in a new record list. A nil list is stored as empty.
func (s *Store) Replace(records []types.AttendanceRecord) {
	next := make([]types.AttendanceRecord, len(records))
	copy(next, records)

	s.mu.Lock()
	s.records = next
	s.version++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Records.Store(uint64(len(next)))
	}
	s.notify()
}

// Records returns a copy of the current list in store order.
func (s *Store) Records() []types.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Version increments on every Replace or successful Reset.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Reset asks the detection service to forget attendance and, on success,
// clears the local list. On failure the list is left as it was.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.resetter.ResetAttendance(ctx); err != nil {
		logger.Error("Attendance", "Error resetting attendance: %v", err)
		if s.metrics != nil {
			s.metrics.ResetFailures.Add(1)
		}
		return err
	}

	s.Replace(nil)
	if s.metrics != nil {
		s.metrics.Resets.Add(1)
	}
	logger.Info("Attendance", "Attendance reset successfully")
	return nil
}

// Subscribe registers for change notifications. The channel holds at most one
// pending notification; slow readers see coalesced changes.
func (s *Store) Subscribe() (int, <-chan struct{}) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch
	logger.Debug("Attendance", "Subscriber #%d added (total: %d)", id, len(s.subs))
	return id, ch
}

// Unsubscribe removes and closes a subscription.
func (s *Store) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
		logger.Debug("Attendance", "Subscriber #%d removed (remaining: %d)", id, len(s.subs))
	}
}

// Notify wakes subscribers without changing the list.
func (s *Store) Notify() {
	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
