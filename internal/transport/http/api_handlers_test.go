package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/register", `{"username":"alice","password":"password123"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var auth AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if auth.Token == "" {
		t.Fatalf("expected non-empty token")
	}

	// Duplicate registration conflicts.
	resp2 := postJSON(t, ts.URL+"/api/register", `{"username":"alice","password":"password123"}`)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp2.StatusCode)
	}

	// Binding rejects short usernames before the service sees them.
	resp3 := postJSON(t, ts.URL+"/api/register", `{"username":"ab","password":"password123"}`)
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp3.StatusCode)
	}
}

func TestLoginEndpoint(t *testing.T) {
	ts, authService, _ := startTestServer(t)
	ctx := context.Background()

	if _, err := authService.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/login", `{"username":"alice","password":"password123"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp2 := postJSON(t, ts.URL+"/api/login", `{"username":"alice","password":"wrong-password"}`)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp2.StatusCode)
	}

	// Banned users are turned away at login.
	if err := authService.Ban(ctx, "alice"); err != nil {
		t.Fatalf("ban: %v", err)
	}
	resp3 := postJSON(t, ts.URL+"/api/login", `{"username":"alice","password":"password123"}`)
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for banned user, got %d", resp3.StatusCode)
	}
}
