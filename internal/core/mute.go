package core

import (
	"sync"
	"time"
)

// MuteList tracks mute expiry per username. Expiry is lazy: a record whose
// deadline has passed is treated as absent at read time, no sweep required.
type MuteList struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

// NewMuteList constructs an empty mute list using the wall clock.
func NewMuteList() *MuteList {
	return &MuteList{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

// Mute silences the user for the given duration and returns the expiry.
func (m *MuteList) Mute(username string, d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.now().Add(d)
	m.until[username] = deadline
	return deadline
}

// MutedUntil reports whether the user is currently muted and until when.
// Expired records are dropped on read.
func (m *MuteList) MutedUntil(username string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline, ok := m.until[username]
	if !ok {
		return time.Time{}, false
	}
	if !m.now().Before(deadline) {
		delete(m.until, username)
		return time.Time{}, false
	}
	return deadline, true
}
