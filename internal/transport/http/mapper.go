package http

import (
	"encoding/json"
	"errors"

	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/proto"
)

func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data payload")
	}
	return json.Unmarshal(data, v)
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventChat:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameChat,
			Data: proto.EventChat{
				User:    event.User,
				Message: event.Text,
				TS:      event.SentAt.Unix(),
			},
		}
	case core.EventWhisper:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameWhisper,
			Data: proto.EventWhisper{
				From:    event.From,
				Message: event.Text,
				TS:      event.SentAt.Unix(),
			},
		}
	case core.EventSystem:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameSystem,
			Data:  proto.EventSystem{Text: event.Text},
		}
	case core.EventPresence:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNamePresence,
			Data:  proto.EventPresence{Users: event.Users},
		}
	case core.EventMuted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMuted,
			Data: proto.EventMuted{
				Until:  event.Until.Unix(),
				Reason: event.Reason,
			},
		}
	case core.EventHistory:
		messages := make([]proto.EventChat, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, proto.EventChat{
				User:    msg.Author,
				Message: msg.Body,
				TS:      msg.CreatedAt.Unix(),
			})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameHistory,
			Data:  proto.EventHistory{Messages: messages},
		}
	case core.EventClearDisplay:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameClearDisplay,
		}
	case core.EventKickNotice:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameKickNotice,
			Data:  proto.EventClose{Reason: event.Reason},
		}
	case core.EventForceClose:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameForceClose,
			Data:  proto.EventClose{Reason: event.Reason},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
