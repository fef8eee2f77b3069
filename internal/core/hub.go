package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/store"
)

// UserDirectory is the external authority on usernames, bans, and the
// admin capability.
type UserDirectory interface {
	Exists(ctx context.Context, username string) bool
	IsBanned(ctx context.Context, username string) bool
	Ban(ctx context.Context, username string) error
	IsAdmin(ctx context.Context, username string) bool
}

// Options tunes hub behavior.
type Options struct {
	// HistoryWindow bounds how many messages are replayed on connect.
	HistoryWindow int
	// DefaultMute applies when /mute carries no usable duration.
	DefaultMute time.Duration
}

// Hub owns the shared chat state: presence, mutes, the reply table, and
// the routes into storage. Sessions funnel every shared-state mutation
// through it; the moderation methods double as the admin-console surface.
type Hub struct {
	registry  *Registry
	mutes     *MuteList
	replies   *replyTable
	router    *Router
	messages  store.MessageStore
	directory UserDirectory
	history   int
	log       *zerolog.Logger
}

// NewHub creates a hub over the given storage and user directory.
func NewHub(messages store.MessageStore, directory UserDirectory, opts Options, logger *zerolog.Logger) *Hub {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 100
	}
	mutes := NewMuteList()
	return &Hub{
		registry:  NewRegistry(),
		mutes:     mutes,
		replies:   newReplyTable(),
		router:    NewRouter(mutes, opts.DefaultMute),
		messages:  messages,
		directory: directory,
		history:   opts.HistoryWindow,
		log:       logger,
	}
}

// Online returns the usernames currently connected, in join order.
func (h *Hub) Online() []string {
	return h.registry.Snapshot()
}

// broadcast delivers an event to every registered connection. The client
// set is copied out of the registry lock first so a slow consumer cannot
// serialize traffic.
func (h *Hub) broadcast(ev *Event) {
	for _, c := range h.registry.Clients() {
		c.deliver(ev)
	}
}

// persist appends a message to storage. Failures are non-fatal: the
// in-memory broadcast proceeds and the error is logged for the operator.
func (h *Hub) persist(ctx context.Context, msg *store.Message) {
	if err := h.messages.AppendMessage(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("author", msg.Author).Msg("message persistence failed, history may be incomplete")
	}
}

// ==== moderation surface (in-chat commands and the admin console) ====

// Kick force-disconnects target and broadcasts a notice naming the actor.
// Returns ErrTargetNotFound if the target has no live connection.
func (h *Hub) Kick(ctx context.Context, actor, target string) error {
	if !h.registry.ForceDisconnect(target, fmt.Sprintf("kicked by %s", actor)) {
		return ErrTargetNotFound
	}
	h.log.Info().Str("actor", actor).Str("target", target).Msg("user kicked")
	h.broadcast(systemEvent(fmt.Sprintf("%s was kicked by %s", target, actor)))
	return nil
}

// BanUser marks target banned in the directory so future logins are
// rejected, then applies kick semantics if the target is online. Banning
// an offline user still takes effect.
func (h *Hub) BanUser(ctx context.Context, actor, target string) error {
	if err := h.directory.Ban(ctx, target); err != nil {
		return err
	}
	h.registry.ForceDisconnect(target, fmt.Sprintf("banned by %s", actor))
	h.log.Info().Str("actor", actor).Str("target", target).Msg("user banned")
	h.broadcast(systemEvent(fmt.Sprintf("%s was banned by %s", target, actor)))
	return nil
}

// MuteUser silences an online target for the given duration. Returns
// ErrTargetNotFound if the target has no live connection.
func (h *Hub) MuteUser(ctx context.Context, actor, target string, d time.Duration) error {
	if _, ok := h.registry.Lookup(target); !ok {
		return ErrTargetNotFound
	}
	until := h.mutes.Mute(target, d)
	h.log.Info().Str("actor", actor).Str("target", target).Time("until", until).Msg("user muted")
	h.broadcast(systemEvent(fmt.Sprintf("%s was muted by %s for %d seconds", target, actor, int(d.Seconds()))))
	return nil
}

// ClearAll instructs every connection to wipe its displayed transcript.
// Stored history is untouched.
func (h *Hub) ClearAll(ctx context.Context, actor string) {
	h.broadcast(&Event{Kind: EventClearDisplay})
	h.broadcast(systemEvent(fmt.Sprintf("chat cleared by %s", actor)))
}

// CloseUser tells the target's client to terminate itself client-side,
// unlike Kick where the server drops the connection. Returns
// ErrTargetNotFound if the target has no live connection.
func (h *Hub) CloseUser(ctx context.Context, actor, target string) error {
	client, ok := h.registry.Lookup(target)
	if !ok {
		return ErrTargetNotFound
	}
	client.deliver(&Event{Kind: EventForceClose, Reason: fmt.Sprintf("session closed by %s", actor)})
	h.broadcast(systemEvent(fmt.Sprintf("%s's session was closed by %s", target, actor)))
	return nil
}
