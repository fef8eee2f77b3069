package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/store"
)

// SessionState tracks the connection lifecycle.
type SessionState int

const (
	// StateConnecting is entered on transport accept, before a username is bound.
	StateConnecting SessionState = iota
	// StateActive means the session is bound and registered.
	StateActive
	// StateClosed means the session is finished; no further input is handled.
	StateClosed
)

// Session binds one connection to one username and drives everything that
// happens on it: the bind handshake, history replay, command routing, and
// dispatch of the resulting broadcasts and moderation actions.
type Session struct {
	hub    *Hub
	client *Client
	log    *zerolog.Logger

	mu      sync.Mutex
	state   SessionState
	isAdmin bool
}

// NewSession creates an unbound session for a freshly accepted connection.
func (h *Hub) NewSession(originIP string) *Session {
	client := NewClient(uuid.NewString(), originIP)
	logger := h.log.With().Str("conn_id", client.ID).Logger()
	return &Session{
		hub:    h,
		client: client,
		log:    &logger,
	}
}

// Client returns the connection handle the transport drains and watches.
func (s *Session) Client() *Client {
	return s.client
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bind attaches a username to the session. It fails with ErrAuthRejected
// for unknown or banned usernames. On success the recent history window is
// replayed to this connection only, then the session registers in the
// presence registry and becomes active.
func (s *Session) Bind(ctx context.Context, username string) error {
	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.mu.Unlock()

	if !s.hub.directory.Exists(ctx, username) || s.hub.directory.IsBanned(ctx, username) {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		s.log.Warn().Str("username", username).Msg("bind rejected")
		return ErrAuthRejected
	}

	history, err := s.hub.messages.RecentMessages(ctx, s.hub.history)
	if err != nil {
		// Degraded replay is not fatal; the user joins with an empty scrollback.
		s.log.Error().Err(err).Msg("history replay failed")
		history = nil
	}
	s.client.deliver(&Event{Kind: EventHistory, Messages: history})

	isAdmin := s.hub.directory.IsAdmin(ctx, username)

	s.mu.Lock()
	s.client.Name = username
	s.isAdmin = isAdmin
	s.state = StateActive
	s.mu.Unlock()

	s.hub.registry.Register(username, s.client)
	s.log.Info().Str("username", username).Bool("admin", isAdmin).Msg("session active")
	return nil
}

// HandleLine routes one inbound chat line while the session is active.
func (s *Session) HandleLine(ctx context.Context, line string) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	username := s.client.Name
	isAdmin := s.isAdmin
	s.mu.Unlock()

	cmd := s.hub.router.Route(username, isAdmin, line)

	switch cmd.Kind {
	case CommandPlain:
		s.dispatchPlain(ctx, username, cmd.Body)
	case CommandWhisper:
		s.dispatchWhisper(ctx, username, cmd.Target, cmd.Body)
	case CommandReply:
		target, ok := s.hub.replies.lastSender(username)
		if !ok {
			s.notify("no one has whispered you yet")
			return
		}
		s.dispatchWhisper(ctx, username, target, cmd.Body)
	case CommandKick:
		if err := s.hub.Kick(ctx, username, cmd.Target); err != nil {
			s.notify(fmt.Sprintf("%s is not online", cmd.Target))
		}
	case CommandBan:
		if err := s.hub.BanUser(ctx, username, cmd.Target); err != nil {
			s.log.Warn().Err(err).Str("target", cmd.Target).Msg("ban failed")
			s.notify(fmt.Sprintf("could not ban %s", cmd.Target))
		}
	case CommandMute:
		if err := s.hub.MuteUser(ctx, username, cmd.Target, cmd.Duration); err != nil {
			s.notify(fmt.Sprintf("%s is not online", cmd.Target))
		}
	case CommandClear:
		s.hub.ClearAll(ctx, username)
	case CommandClose:
		if err := s.hub.CloseUser(ctx, username, cmd.Target); err != nil {
			s.notify(fmt.Sprintf("%s is not online", cmd.Target))
		}
	case CommandMutedReject:
		s.client.deliver(&Event{
			Kind:   EventMuted,
			Until:  cmd.Until,
			Reason: "you are muted",
		})
	case CommandNotice:
		s.notify(cmd.Body)
	}
}

// Close finishes the session. The presence registry emits the left notice
// and fresh snapshot; a session already displaced or kicked unregisters as
// a no-op. Safe to call more than once.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	prev := s.state
	s.state = StateClosed
	username := s.client.Name
	s.mu.Unlock()

	if prev != StateActive {
		return
	}

	s.hub.registry.Unregister(username, s.client)
	s.log.Info().Str("username", username).Msg("session closed")
}

func (s *Session) dispatchPlain(ctx context.Context, username, body string) {
	now := time.Now()
	msg := &store.Message{
		Author:    username,
		Body:      body,
		OriginIP:  s.client.OriginIP,
		CreatedAt: now,
	}
	s.hub.persist(ctx, msg)
	s.hub.broadcast(chatEvent(username, body, now))
}

func (s *Session) dispatchWhisper(ctx context.Context, sender, target, body string) {
	targetClient, ok := s.hub.registry.Lookup(target)
	if !ok {
		s.notify(fmt.Sprintf("%s is not online", target))
		return
	}

	ev := &Event{
		Kind:   EventWhisper,
		From:   sender,
		User:   target,
		Text:   body,
		SentAt: time.Now(),
	}
	targetClient.deliver(ev)
	if target != sender {
		s.client.deliver(ev)
	}

	s.hub.replies.record(target, sender)

	recipient := target
	s.hub.persist(ctx, &store.Message{
		Author:    sender,
		Body:      body,
		Recipient: &recipient,
		OriginIP:  s.client.OriginIP,
		CreatedAt: ev.SentAt,
	})
}

// notify delivers a private system notice to this session only.
func (s *Session) notify(text string) {
	s.client.deliver(systemEvent(text))
}
