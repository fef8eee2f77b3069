package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeChat  = "chat"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameChat         = "chat"
	EventNameWhisper      = "whisper"
	EventNameSystem       = "system"
	EventNamePresence     = "presence"
	EventNameMuted        = "muted"
	EventNameHistory      = "history"
	EventNameClearDisplay = "clear_display"
	EventNameKickNotice   = "kick_notice"
	EventNameForceClose   = "force_close"
)

// HelloData is sent by the client to bind the connection to a username.
// The token is the JWT obtained from /api/login or /api/register.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// ChatData is one raw chat line from the client.
type ChatData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventChat is a broadcast chat message or a history replay entry.
type EventChat struct {
	User    string `json:"user"`
	Message string `json:"message"`
	TS      int64  `json:"timestamp"`
}

// EventWhisper is a private message, seen by sender and target only.
type EventWhisper struct {
	From    string `json:"from"`
	Message string `json:"message"`
	TS      int64  `json:"timestamp"`
}

// EventSystem is a moderation/join/leave notice.
type EventSystem struct {
	Text string `json:"text"`
}

// EventPresence is the full online-user snapshot, join order.
type EventPresence struct {
	Users []string `json:"users"`
}

// EventMuted privately tells a sender their message was dropped.
type EventMuted struct {
	Until  int64  `json:"until"`
	Reason string `json:"reason"`
}

// EventHistory replays the recent message window, oldest first.
type EventHistory struct {
	Messages []EventChat `json:"messages"`
}

// EventClose carries the reason for a kick or client-side close request.
type EventClose struct {
	Reason string `json:"reason,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
