package shared

import (
	"sync"
	"time"
)

// Stamper hands out strictly increasing Unix-millisecond stamps.
//
// A stamp is the current time in milliseconds unless that would repeat or go
// behind the previous stamp, in which case it is the previous stamp + 1.
// Song ids and storage filenames are built from these.
type Stamper struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewStamper creates a [Stamper] reading the wall clock.
func NewStamper() *Stamper {
	return &Stamper{now: time.Now}
}

// NewStamperWithClock creates a [Stamper] reading the given clock.
func NewStamperWithClock(now func() time.Time) *Stamper {
	return &Stamper{now: now}
}

// Next returns the next stamp.
func (s *Stamper) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}
