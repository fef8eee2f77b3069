package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/store/memory"
)

// fakeDirectory is an in-memory UserDirectory for core tests.
type fakeDirectory struct {
	mu     sync.Mutex
	known  map[string]bool
	banned map[string]bool
	admins map[string]bool
}

func newFakeDirectory(users ...string) *fakeDirectory {
	d := &fakeDirectory{
		known:  make(map[string]bool),
		banned: make(map[string]bool),
		admins: make(map[string]bool),
	}
	for _, u := range users {
		d.known[u] = true
	}
	return d
}

func (d *fakeDirectory) addAdmin(username string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[username] = true
	d.admins[username] = true
}

func (d *fakeDirectory) Exists(_ context.Context, username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.known[username]
}

func (d *fakeDirectory) IsBanned(_ context.Context, username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.banned[username]
}

func (d *fakeDirectory) Ban(_ context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.banned[username] = true
	return nil
}

func (d *fakeDirectory) IsAdmin(_ context.Context, username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.admins[username]
}

func newTestHub(t *testing.T, users ...string) (*Hub, *memory.MemoryStore, *fakeDirectory) {
	t.Helper()

	st := memory.New(500)
	dir := newFakeDirectory(users...)
	logger := zerolog.Nop()
	hub := NewHub(st, dir, Options{HistoryWindow: 50}, &logger)
	return hub, st, dir
}

// bind creates an active session for username or fails the test.
func bind(t *testing.T, hub *Hub, username string) *Session {
	t.Helper()

	session := hub.NewSession("127.0.0.1")
	if err := session.Bind(context.Background(), username); err != nil {
		t.Fatalf("bind %s: %v", username, err)
	}
	return session
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts no event of the given kind is currently queued.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}
