package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/modchat/modchat-server/internal/auth"
	"github.com/modchat/modchat-server/internal/config"
	"github.com/modchat/modchat-server/internal/core"
	"github.com/modchat/modchat-server/internal/store"
	"github.com/modchat/modchat-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing. extraAdmins
// grants the admin capability the same way the admins config key does.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string, extraAdmins ...string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig, extraAdmins)
}

// startTestServer wires a full server over an in-memory store and returns
// the running httptest server plus the pieces tests need to seed state.
func startTestServer(t *testing.T, extraAdmins ...string) (*httptest.Server, *auth.Service, store.Store) {
	t.Helper()

	testStore := createTestStore(t)
	authService := createTestAuthService(t, testStore, "test-secret", extraAdmins...)

	disabledLogger := zerolog.Nop()

	hub := core.NewHub(testStore, authService, core.Options{
		HistoryWindow: 50,
		DefaultMute:   60 * time.Second,
	}, &disabledLogger)

	cfg := config.Config{
		Addr:               ":0",
		ReadHeaderTimeout:  time.Second,
		ShutdownTimeout:    time.Second,
		MaxMessageBytes:    1 << 20,
		DefaultMuteSeconds: 60,
	}

	server := NewServer(hub, authService, testStore, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService, testStore
}
