package core

import (
	"time"

	"github.com/modchat/modchat-server/internal/store"
)

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventChat carries a broadcast chat message.
	EventChat EventKind = iota
	// EventWhisper carries a private message, delivered to sender and target only.
	EventWhisper
	// EventSystem carries a moderation/join/leave notice.
	EventSystem
	// EventPresence carries the full online-user snapshot.
	EventPresence
	// EventMuted privately tells a sender their message was dropped.
	EventMuted
	// EventHistory delivers replayed messages to a newly bound connection.
	EventHistory
	// EventClearDisplay tells clients to wipe their displayed transcript.
	EventClearDisplay
	// EventKickNotice privately tells a connection it is being force-disconnected.
	EventKickNotice
	// EventForceClose privately tells a connection to terminate itself client-side.
	EventForceClose
	// EventError notifies a connection about a domain error.
	EventError
)

// Event is sent to connections to describe what happened in the system.
type Event struct {
	Kind     EventKind
	User     string // author for chat, subject for presence changes
	From     string // whisper sender
	Text     string
	SentAt   time.Time
	Users    []string // presence snapshot
	Until    time.Time
	Reason   string
	Messages []*store.Message // history replay
	Error    *CoreError
}

func chatEvent(author, text string, at time.Time) *Event {
	return &Event{Kind: EventChat, User: author, Text: text, SentAt: at}
}

func systemEvent(text string) *Event {
	return &Event{Kind: EventSystem, Text: text, SentAt: time.Now()}
}
