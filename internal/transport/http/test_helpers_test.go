package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/telecare/session-server/internal/auth"
	"github.com/telecare/session-server/internal/config"
	"github.com/telecare/session-server/internal/gate"
	"github.com/telecare/session-server/internal/rtc"
	"github.com/telecare/session-server/internal/session"
	"github.com/telecare/session-server/internal/store"
	"github.com/telecare/session-server/internal/store/sqlite"
)

// testEnv bundles the wired session layer for transport tests.
type testEnv struct {
	ts    *httptest.Server
	store *sqlite.SQLiteStore
	auth  *auth.Service
	reg   *session.Registry
	rooms *session.Rooms
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	disabledLogger := zerolog.New(nil)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("testsecret"),
		Issuer:   "telecare",
		Audience: "telecare-clients",
		TTL:      time.Hour,
	})

	rooms := session.NewRooms()
	reg := session.NewRegistry(rooms)
	tokens := rtc.NewService("test-app", []byte("test-rtc-secret"))
	dir := store.NewDirectory(st)
	g := gate.New(dir, dir, tokens, reg, 30*time.Minute, &disabledLogger)

	cfg := config.Default()
	cfg.Addr = ":0"
	server := NewServer(authService, g, reg, rooms, cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, reg: reg, rooms: rooms}
}

// registerSubject creates a subject through the API and returns its bearer
// token plus the stored record.
func (e *testEnv) registerSubject(t *testing.T, username, role string) (string, *store.Subject) {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Username: username, Password: "password1", Role: role})
	resp, err := e.ts.Client().Post(e.ts.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	sub, err := e.store.GetSubjectByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("lookup subject: %v", err)
	}
	return authResp.Token, sub
}

// doAuthed performs an authenticated request against the test server.
func (e *testEnv) doAuthed(t *testing.T, method, path, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
