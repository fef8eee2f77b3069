package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Role defines a user's capability level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Banned       bool
	CreatedAt    time.Time
}

// Message represents a persisted chat message. Recipient is nil for
// broadcast messages and set for whispers, which are persisted for
// admin audit but never replayed to other users.
type Message struct {
	ID        int64
	Author    string
	Body      string
	Recipient *string
	OriginIP  string
	CreatedAt time.Time
}

// Whisper reports whether the message was a whisper.
func (m *Message) Whisper() bool {
	return m.Recipient != nil
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string, role Role) (*User, error)

	// GetUserByUsername retrieves a user by username. Returns ErrNotFound
	// when the username is unknown.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SetBanned marks or unmarks a user as banned.
	SetBanned(ctx context.Context, username string, banned bool) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message and fills in its ID.
	AppendMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns up to limit most recent broadcast messages,
	// oldest first. Whispers are excluded from replay.
	RecentMessages(ctx context.Context, limit int) ([]*Message, error)

	// RecentAuditMessages returns up to limit most recent messages of any
	// kind, whispers included, oldest first. Used by the admin console.
	RecentAuditMessages(ctx context.Context, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying medium.
	Close() error
}
