// ABOUTME: Tests for the logout and whoami commands
// ABOUTME: Covers signed-in, signed-out and revoked sessions

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogout_NotLoggedIn(t *testing.T) {
	e, _ := newTestEnv(t)

	var buf bytes.Buffer
	if code := runLogout(context.Background(), e, &buf); code != exitOK {
		t.Errorf("expected exit 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "Not logged in") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	e, mock := newTestEnv(t)
	signIn(t, e, mock, "admin", "admin")

	var buf bytes.Buffer
	if code := runLogout(context.Background(), e, &buf); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Logged out") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if e.store.Get().Authenticated() {
		t.Error("expected session to be cleared")
	}
}

func TestLogout_RevokedSession(t *testing.T) {
	e, mock := newTestEnv(t)
	signIn(t, e, mock, "admin", "admin")
	mock.Revoke("1")

	var buf bytes.Buffer
	code := runLogout(context.Background(), e, &buf)

	if code != exitError {
		t.Errorf("expected exit 2, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "session cleared") {
		t.Errorf("expected session hint: %s", buf.String())
	}
	if e.store.Get().Authenticated() {
		t.Error("expected the forced deauthentication to clear the session")
	}
}

func TestWhoami_RequiresSession(t *testing.T) {
	e, _ := newTestEnv(t)

	var buf bytes.Buffer
	if code := runWhoami(e, &buf); code != exitError {
		t.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "not logged in") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWhoami_Human(t *testing.T) {
	e, mock := newTestEnv(t)
	signIn(t, e, mock, "operator", "operator")

	var buf bytes.Buffer
	if code := runWhoami(e, &buf); code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"operator", "Gateway Operator", e.cfg.Server, "default"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, buf.String())
		}
	}
}

func TestWhoami_JSON(t *testing.T) {
	withJSON(t)
	e, mock := newTestEnv(t)
	signIn(t, e, mock, "admin", "admin")

	var buf bytes.Buffer
	if code := runWhoami(e, &buf); code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var out whoami
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Username != "admin" || out.RoleName != "super" || out.Profile != "default" {
		t.Errorf("unexpected whoami %+v", out)
	}
}
