package memory

import (
	"context"
	"sync"
	"time"

	"github.com/modchat/modchat-server/internal/store"
)

// MemoryStore implements store.Store entirely in memory. It backs tests
// and deployments that can afford to lose history on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*store.User
	messages []*store.Message
	nextUser int64
	nextMsg  int64
	maxSize  int
}

// New creates a memory store retaining up to maxSize messages.
func New(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		users:   make(map[string]*store.User),
		maxSize: maxSize,
	}
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// CreateUser creates a new user with hashed password.
func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string, role store.Role) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == "" {
		role = store.RoleUser
	}
	s.nextUser++
	user := &store.User{
		ID:           s.nextUser,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	s.users[username] = user

	clone := *user
	return &clone, nil
}

// GetUserByUsername retrieves a user by username.
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// SetBanned marks or unmarks a user as banned.
func (s *MemoryStore) SetBanned(_ context.Context, username string, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Banned = banned
	return nil
}

// AppendMessage persists a message and fills in its ID.
func (s *MemoryStore) AppendMessage(_ context.Context, msg *store.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMsg++
	msg.ID = s.nextMsg

	clone := *msg
	s.messages = append(s.messages, &clone)
	if len(s.messages) > s.maxSize {
		s.messages = s.messages[len(s.messages)-s.maxSize:]
	}
	return nil
}

// RecentMessages returns up to limit most recent broadcast messages, oldest first.
func (s *MemoryStore) RecentMessages(_ context.Context, limit int) ([]*store.Message, error) {
	return s.recent(limit, false), nil
}

// RecentAuditMessages returns up to limit most recent messages of any kind, oldest first.
func (s *MemoryStore) RecentAuditMessages(_ context.Context, limit int) ([]*store.Message, error) {
	return s.recent(limit, true), nil
}

func (s *MemoryStore) recent(limit int, includeWhispers bool) []*store.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Message
	for i := len(s.messages) - 1; i >= 0 && len(result) < limit; i-- {
		msg := s.messages[i]
		if !includeWhispers && msg.Whisper() {
			continue
		}
		clone := *msg
		result = append(result, &clone)
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}
