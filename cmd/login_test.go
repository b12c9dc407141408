// ABOUTME: Tests for the login command
// ABOUTME: Drives the captcha handshake with a scripted prompt

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/mockserver"
)

// scriptedPrompt answers each challenge with the next credentials in turn.
// An empty code is replaced by the mock's correct answer.
func scriptedPrompt(mock *mockserver.Server, attempts ...credentials) (prompter, *int) {
	calls := 0
	return func(w io.Writer, c client.Captcha, picture string, creds *credentials) error {
		if calls >= len(attempts) {
			return huh.ErrUserAborted
		}
		a := attempts[calls]
		calls++
		if creds.Username == "" {
			creds.Username = a.Username
		}
		if creds.Password == "" {
			creds.Password = a.Password
		}
		creds.Code = a.Code
		if creds.Code == "" {
			creds.Code = mock.CaptchaAnswer(c.ID)
		}
		return nil
	}, &calls
}

func resetLoginFlags(t *testing.T) {
	t.Helper()
	loginUsername, loginPassword = "", ""
	t.Cleanup(func() { loginUsername, loginPassword = "", "" })
}

func TestLogin_Success(t *testing.T) {
	resetLoginFlags(t)
	e, mock := newTestEnv(t)
	prompt, _ := scriptedPrompt(mock, credentials{Username: "admin", Password: "admin"})

	var buf bytes.Buffer
	code := runLogin(context.Background(), e, &buf, prompt)

	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if !strings.Contains(buf.String(), "Logged in as Administrator (admin)") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	sess := e.store.Get()
	if !sess.Authenticated() || sess.Username != "admin" || sess.RoleName != "super" {
		t.Errorf("expected stored admin session, got %+v", sess)
	}
}

func TestLogin_JSON(t *testing.T) {
	resetLoginFlags(t)
	withJSON(t)
	e, mock := newTestEnv(t)
	prompt, _ := scriptedPrompt(mock, credentials{Username: "operator", Password: "operator"})

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, prompt); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}

	var out map[string]string
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if out["username"] != "operator" || out["nickname"] != "Gateway Operator" {
		t.Errorf("unexpected JSON %v", out)
	}
}

func TestLogin_RetriesAfterWrongCaptcha(t *testing.T) {
	resetLoginFlags(t)
	e, mock := newTestEnv(t)
	prompt, calls := scriptedPrompt(mock,
		credentials{Username: "admin", Password: "admin", Code: "ZZZZ"},
		credentials{Username: "admin", Password: "admin"},
	)

	var buf bytes.Buffer
	code := runLogin(context.Background(), e, &buf, prompt)

	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if *calls != 2 {
		t.Errorf("expected 2 prompts, got %d", *calls)
	}
	if !strings.Contains(buf.String(), "Login failed:") {
		t.Errorf("expected the first failure to be reported:\n%s", buf.String())
	}
}

func TestLogin_GivesUpAfterMaxAttempts(t *testing.T) {
	resetLoginFlags(t)
	e, mock := newTestEnv(t)
	bad := credentials{Username: "admin", Password: "wrong"}
	prompt, calls := scriptedPrompt(mock, bad, bad, bad, bad)

	var buf bytes.Buffer
	code := runLogin(context.Background(), e, &buf, prompt)

	if code != exitBusiness {
		t.Errorf("expected exit 1, got %d: %s", code, buf.String())
	}
	if *calls != maxLoginAttempts {
		t.Errorf("expected %d prompts, got %d", maxLoginAttempts, *calls)
	}
	if !strings.Contains(buf.String(), mockserver.MsgBadCredentials) {
		t.Errorf("expected server message in output:\n%s", buf.String())
	}
	if e.store.Get().Authenticated() {
		t.Error("expected no session after failed login")
	}
}

func TestLogin_FlagsSkipPrompts(t *testing.T) {
	resetLoginFlags(t)
	loginUsername, loginPassword = "editor", "editor"
	e, mock := newTestEnv(t)

	var seen credentials
	prompt := func(w io.Writer, c client.Captcha, picture string, creds *credentials) error {
		seen = *creds
		creds.Code = mock.CaptchaAnswer(c.ID)
		return nil
	}

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, prompt); code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, buf.String())
	}
	if seen.Username != "editor" || seen.Password != "editor" {
		t.Errorf("expected flag values to prefill credentials, got %+v", seen)
	}
}

func TestLogin_Cancelled(t *testing.T) {
	resetLoginFlags(t)
	e, _ := newTestEnv(t)
	prompt := func(io.Writer, client.Captcha, string, *credentials) error {
		return huh.ErrUserAborted
	}

	var buf bytes.Buffer
	code := runLogin(context.Background(), e, &buf, prompt)

	if code != exitError {
		t.Errorf("expected exit 2, got %d", code)
	}
	if !strings.Contains(buf.String(), "Login cancelled") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestLogin_PromptError(t *testing.T) {
	resetLoginFlags(t)
	e, _ := newTestEnv(t)
	prompt := func(io.Writer, client.Captcha, string, *credentials) error {
		return errors.New("no tty")
	}

	var buf bytes.Buffer
	if code := runLogin(context.Background(), e, &buf, prompt); code != exitError {
		t.Errorf("expected exit 2, got %d", code)
	}
}

func TestLogin_ServerUnreachable(t *testing.T) {
	resetLoginFlags(t)
	e, _ := newTestEnv(t)
	e.cfg.Server = "http://127.0.0.1:1"
	e = wire(e.cfg, e.store, e.log)

	var buf bytes.Buffer
	code := runLogin(context.Background(), e, &buf, func(io.Writer, client.Captcha, string, *credentials) error {
		t.Fatal("prompt should not run without a captcha")
		return nil
	})

	if code != exitError {
		t.Errorf("expected exit 2, got %d: %s", code, buf.String())
	}
}
