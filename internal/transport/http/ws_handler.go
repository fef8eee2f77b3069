package http

import (
	"context"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/auth"
	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/proto"
)

const helloTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub             *core.Hub
	authService     *auth.Service
	maxMessageBytes int64
	chatRateLimit   int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, maxMessageBytes int64, chatRateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:             hub,
		authService:     authService,
		maxMessageBytes: maxMessageBytes,
		chatRateLimit:   chatRateLimit,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	session := h.hub.NewSession(remoteIP(r))
	defer session.Close(context.Background())

	if err := h.handshake(ctx, conn, session); err != nil {
		h.log.Warn().Err(err).Msg("ws handshake rejected")
		conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Client())
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake expects a hello envelope carrying a valid JWT and binds the
// session to the token's username.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		return err
	}
	if inbound.Type != proto.InboundTypeHello {
		h.writeError(ctx, conn, core.ErrCodeBadRequest, "expected hello")
		return errors.New("first message was not hello")
	}

	var hello proto.HelloData
	if err := unmarshalData(inbound.Data, &hello); err != nil {
		return err
	}

	claims, err := h.authService.ValidateToken(hello.Token)
	if err != nil {
		h.writeError(ctx, conn, core.ErrCodeAuthRejected, "invalid token")
		return err
	}

	if err := session.Bind(ctx, claims.Username); err != nil {
		h.writeError(ctx, conn, core.ErrCodeAuthRejected, "authentication rejected")
		return err
	}

	return nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	limiter := newRateLimiter(h.chatRateLimit)
	limiter.stopOn(ctx.Done())

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeChat:
			var chat proto.ChatData
			if err := unmarshalData(inbound.Data, &chat); err != nil {
				return err
			}
			if chat.Text == "" {
				continue
			}
			if !limiter.allow() {
				h.writeError(ctx, conn, core.ErrCodeBadRequest, "rate limit exceeded, message dropped")
				continue
			}
			session.HandleLine(ctx, chat.Text)
		case proto.InboundTypeHello:
			h.writeError(ctx, conn, core.ErrCodeBadRequest, "already bound")
		default:
			h.writeError(ctx, conn, core.ErrCodeBadRequest, "unknown message type")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			// Server-side force disconnect. Flush anything already queued
			// (the kick notice in particular), then stop.
			for {
				select {
				case event := <-client.Events:
					if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
						return err
					}
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, msg string) {
	_ = wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}

func remoteIP(r *stdhttp.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
