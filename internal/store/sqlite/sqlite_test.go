package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modchat/modchat-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUserLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice", "hash", store.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Username != "alice" || user.Role != store.RoleUser || user.Banned {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := st.CreateUser(ctx, "alice", "hash2", store.RoleUser); err == nil {
		t.Fatalf("duplicate username must fail")
	}

	if _, err := st.GetUserByUsername(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := st.SetBanned(ctx, "alice", true); err != nil {
		t.Fatalf("set banned: %v", err)
	}
	user, err = st.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !user.Banned {
		t.Fatalf("ban flag not persisted")
	}

	if err := st.SetBanned(ctx, "ghost", true); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("banning unknown user should report ErrNotFound, got %v", err)
	}
}

func TestAdminRoleRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateUser(ctx, "DEV", "hash", store.RoleAdmin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	user, err := st.GetUserByUsername(ctx, "DEV")
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if user.Role != store.RoleAdmin {
		t.Fatalf("unexpected role: %v", user.Role)
	}
}

func TestRecentMessagesWindowAndOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		msg := &store.Message{
			Author:    "alice",
			Body:      "msg",
			OriginIP:  "127.0.0.1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := st.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("append: %v", err)
		}
		if msg.ID == 0 {
			t.Fatalf("append must fill in the message ID")
		}
	}

	msgs, err := st.RecentMessages(ctx, 4)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID <= msgs[i-1].ID {
			t.Fatalf("messages out of order: %v then %v", msgs[i-1].ID, msgs[i].ID)
		}
	}
	// The window keeps the newest rows.
	if msgs[len(msgs)-1].ID != 10 {
		t.Fatalf("window should end at the newest message, got %d", msgs[len(msgs)-1].ID)
	}
}

func TestWhispersExcludedFromReplayButAudited(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	recipient := "bob"
	if err := st.AppendMessage(ctx, &store.Message{
		Author: "alice", Body: "public", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.AppendMessage(ctx, &store.Message{
		Author: "alice", Body: "private", Recipient: &recipient, CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("append whisper: %v", err)
	}

	replay, err := st.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(replay) != 1 || replay[0].Body != "public" {
		t.Fatalf("whisper leaked into replay: %+v", replay)
	}

	audit, err := st.RecentAuditMessages(ctx, 10)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 2 {
		t.Fatalf("audit should include whispers, got %d rows", len(audit))
	}
	last := audit[len(audit)-1]
	if last.Recipient == nil || *last.Recipient != "bob" {
		t.Fatalf("whisper recipient not recorded: %+v", last)
	}
}
