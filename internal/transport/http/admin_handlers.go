package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/store"
)

// AdminHandlers is the admin-console surface. Moderation issued here goes
// through the same hub paths as in-chat slash commands.
type AdminHandlers struct {
	hub         *core.Hub
	messages    store.MessageStore
	defaultMute time.Duration
	log         *zerolog.Logger
}

// NewAdminHandlers creates admin console handlers.
func NewAdminHandlers(hub *core.Hub, messages store.MessageStore, defaultMute time.Duration, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{
		hub:         hub,
		messages:    messages,
		defaultMute: defaultMute,
		log:         logger,
	}
}

// TargetRequest names the user a moderation action applies to.
type TargetRequest struct {
	Target string `json:"target" binding:"required"`
}

// MuteRequest names the user to mute and an optional duration in seconds.
type MuteRequest struct {
	Target          string `json:"target" binding:"required"`
	DurationSeconds int    `json:"duration_seconds"`
}

// PresenceResponse is the online-user snapshot.
type PresenceResponse struct {
	Users []string `json:"users"`
}

// MessageRecord is one audit-log row.
type MessageRecord struct {
	ID        int64   `json:"id"`
	Author    string  `json:"author"`
	Body      string  `json:"body"`
	Recipient *string `json:"recipient,omitempty"`
	OriginIP  string  `json:"origin_ip,omitempty"`
	TS        int64   `json:"timestamp"`
}

// Presence returns who is online, in join order.
// GET /api/admin/presence
func (h *AdminHandlers) Presence(c *gin.Context) {
	c.JSON(http.StatusOK, PresenceResponse{Users: h.hub.Online()})
}

// Kick force-disconnects a user.
// POST /api/admin/kick
func (h *AdminHandlers) Kick(c *gin.Context) {
	h.moderate(c, func(actor, target string) error {
		return h.hub.Kick(c.Request.Context(), actor, target)
	})
}

// Ban bans a user and disconnects them if online.
// POST /api/admin/ban
func (h *AdminHandlers) Ban(c *gin.Context) {
	h.moderate(c, func(actor, target string) error {
		return h.hub.BanUser(c.Request.Context(), actor, target)
	})
}

// Close asks a user's client to terminate itself.
// POST /api/admin/close
func (h *AdminHandlers) Close(c *gin.Context) {
	h.moderate(c, func(actor, target string) error {
		return h.hub.CloseUser(c.Request.Context(), actor, target)
	})
}

// Mute silences a user.
// POST /api/admin/mute
func (h *AdminHandlers) Mute(c *gin.Context) {
	var req MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	duration := h.defaultMute
	if req.DurationSeconds > 0 {
		duration = time.Duration(req.DurationSeconds) * time.Second
	}

	actor := c.GetString(ContextKeyUsername)
	if err := h.hub.MuteUser(c.Request.Context(), actor, req.Target, duration); err != nil {
		h.writeModerationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear wipes every connected client's displayed transcript.
// POST /api/admin/clear
func (h *AdminHandlers) Clear(c *gin.Context) {
	actor := c.GetString(ContextKeyUsername)
	h.hub.ClearAll(c.Request.Context(), actor)
	c.Status(http.StatusNoContent)
}

// Messages returns the recent persisted history, whispers included.
// GET /api/admin/messages?limit=N
func (h *AdminHandlers) Messages(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	msgs, err := h.messages.RecentAuditMessages(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("audit read failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	records := make([]MessageRecord, 0, len(msgs))
	for _, msg := range msgs {
		records = append(records, MessageRecord{
			ID:        msg.ID,
			Author:    msg.Author,
			Body:      msg.Body,
			Recipient: msg.Recipient,
			OriginIP:  msg.OriginIP,
			TS:        msg.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": records})
}

func (h *AdminHandlers) moderate(c *gin.Context, action func(actor, target string) error) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actor := c.GetString(ContextKeyUsername)
	if err := action(actor, req.Target); err != nil {
		h.writeModerationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandlers) writeModerationError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrTargetNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "target not connected"})
		return
	}
	h.log.Error().Err(err).Msg("moderation action failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
