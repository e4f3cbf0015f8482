package store

import (
	"sort"
	"sync"
	"time"
)

// ActiveShift is one staff member currently on shift.
type ActiveShift struct {
	UserID    string
	StartedAt time.Time
}

// ShiftStore tracks which staff members are on shift, keyed by user ID.
// Like the other workflow stores it is in-memory only; a restart clears
// every open shift.
type ShiftStore struct {
	mu     sync.Mutex
	shifts map[string]time.Time
}

func NewShiftStore() *ShiftStore {
	return &ShiftStore{shifts: map[string]time.Time{}}
}

// Start opens a shift for the user. A user with an open shift cannot
// start a second one.
func (s *ShiftStore) Start(userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shifts[userID]; ok {
		return ErrShiftAlreadyActive
	}
	s.shifts[userID] = at
	return nil
}

// End closes the user's shift and returns when it started.
func (s *ShiftStore) End(userID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started, ok := s.shifts[userID]
	if !ok {
		return time.Time{}, ErrShiftNotActive
	}
	delete(s.shifts, userID)
	return started, nil
}

// Active returns every open shift, oldest first.
func (s *ShiftStore) Active() []ActiveShift {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveShift, 0, len(s.shifts))
	for id, at := range s.shifts {
		out = append(out, ActiveShift{UserID: id, StartedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}
