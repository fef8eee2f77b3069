package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/modchat/modchat-server/internal/proto"
	"github.com/modchat/modchat-server/internal/store"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func sendHello(t *testing.T, ctx context.Context, conn *websocket.Conn, token string) {
	t.Helper()
	payload, _ := json.Marshal(proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: payload}); err != nil {
		t.Fatalf("write hello: %v", err)
	}
}

func sendChat(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()
	payload, _ := json.Marshal(proto.ChatData{Text: text})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeChat, Data: payload}); err != nil {
		t.Fatalf("write chat: %v", err)
	}
}

type outboundEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// readUntilEvent reads envelopes until one carries the wanted event name.
// Presence snapshots and system notices interleave with the interesting
// events, so tests skip past what they are not looking for.
func readUntilEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, name string) outboundEnvelope {
	t.Helper()
	for {
		var env outboundEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("read waiting for %q: %v", name, err)
		}
		if env.Type == proto.OutboundTypeEvent && env.Event == name {
			return env
		}
	}
}

func TestWebSocketChatBroadcast(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokenA, err := authService.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	tokenB, err := authService.Register(ctx, "bob", "password123")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	sendHello(t, ctx, connA, tokenA)
	readUntilEvent(t, ctx, connA, proto.EventNamePresence)

	sendHello(t, ctx, connB, tokenB)
	readUntilEvent(t, ctx, connB, proto.EventNamePresence)

	sendChat(t, ctx, connA, "hi there")

	env := readUntilEvent(t, ctx, connB, proto.EventNameChat)
	var event proto.EventChat
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("unmarshal chat event: %v", err)
	}
	if event.User != "alice" || event.Message != "hi there" {
		t.Fatalf("unexpected chat event: %+v", event)
	}

	// The sender sees their own broadcast too.
	env = readUntilEvent(t, ctx, connA, proto.EventNameChat)
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("unmarshal chat event: %v", err)
	}
	if event.User != "alice" {
		t.Fatalf("sender did not receive own broadcast: %+v", event)
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendHello(t, ctx, conn, "not-a-jwt")

	var env outboundEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if env.Type != proto.OutboundTypeError || env.Error == nil || env.Error.Code != "auth_rejected" {
		t.Fatalf("expected auth_rejected error, got %+v", env)
	}

	// The server then closes the connection.
	if err := wsjson.Read(ctx, conn, &env); err == nil {
		t.Fatalf("expected connection to close after rejection")
	}
}

func TestWebSocketHistoryReplay(t *testing.T) {
	ts, authService, testStore := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := authService.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := testStore.AppendMessage(ctx, &store.Message{
		Author:    "bob",
		Body:      "before you arrived",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendHello(t, ctx, conn, token)

	env := readUntilEvent(t, ctx, conn, proto.EventNameHistory)
	var history proto.EventHistory
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Messages) != 1 || history.Messages[0].User != "bob" || history.Messages[0].Message != "before you arrived" {
		t.Fatalf("unexpected history: %+v", history.Messages)
	}
}

func TestWebSocketKickFlow(t *testing.T) {
	ts, authService, _ := startTestServer(t, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokenA, err := authService.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	tokenB, err := authService.Register(ctx, "bob", "password123")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	sendHello(t, ctx, connA, tokenA)
	readUntilEvent(t, ctx, connA, proto.EventNamePresence)
	sendHello(t, ctx, connB, tokenB)
	readUntilEvent(t, ctx, connB, proto.EventNamePresence)

	sendChat(t, ctx, connA, "/kick bob")

	env := readUntilEvent(t, ctx, connB, proto.EventNameKickNotice)
	var notice proto.EventClose
	if err := json.Unmarshal(env.Data, &notice); err != nil {
		t.Fatalf("unmarshal kick notice: %v", err)
	}
	if notice.Reason != "kicked by alice" {
		t.Fatalf("unexpected kick reason: %q", notice.Reason)
	}

	// The rest of the room hears about it. The join notice for bob may
	// still be queued ahead of the kick notice, so poll past it.
	for {
		env = readUntilEvent(t, ctx, connA, proto.EventNameSystem)
		var system proto.EventSystem
		if err := json.Unmarshal(env.Data, &system); err != nil {
			t.Fatalf("unmarshal system notice: %v", err)
		}
		if system.Text == "bob was kicked by alice" {
			break
		}
	}
}

func TestWebSocketNonAdminSlashTextBroadcasts(t *testing.T) {
	ts, authService, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := authService.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendHello(t, ctx, conn, token)
	readUntilEvent(t, ctx, conn, proto.EventNamePresence)

	sendChat(t, ctx, conn, "/kick bob")

	env := readUntilEvent(t, ctx, conn, proto.EventNameChat)
	var event proto.EventChat
	if err := json.Unmarshal(env.Data, &event); err != nil {
		t.Fatalf("unmarshal chat event: %v", err)
	}
	if event.Message != "/kick bob" {
		t.Fatalf("non-admin slash text should broadcast verbatim, got %q", event.Message)
	}
}
