// ABOUTME: Shared test harness wiring the app to the mock control plane
// ABOUTME: Runs bubbletea commands synchronously and feeds results back

package tui

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/mockserver"
	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/toast"
)

type harness struct {
	mock   *mockserver.Server
	store  *session.KV
	client *client.Client
	shell  *shell.Shell
	bus    *toast.Bus
	toasts []toast.Event
	app    *App

	stopRecording func()
}

// newHarness builds an app; loggedIn signs in as admin before the app starts
func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	h := &harness{mock: mockserver.New()}
	server := httptest.NewServer(h.mock)
	t.Cleanup(server.Close)

	h.bus = toast.New(nil)
	h.stopRecording = h.bus.Subscribe(func(ev toast.Event) { h.toasts = append(h.toasts, ev) })
	h.store = session.New(session.NewMemoryBackend(), nil)
	h.client = client.New(client.APIRoot(server.URL, ""), client.WithSession(h.store), client.WithBus(h.bus))

	if loggedIn {
		ctx := context.Background()
		c, err := h.client.Captcha(ctx)
		if err != nil {
			t.Fatalf("captcha: %v", err)
		}
		resp, err := h.client.Login(ctx, client.LoginRequest{
			Username:  client.HashCredential("admin"),
			Password:  client.HashCredential("admin"),
			Captcha:   h.mock.CaptchaAnswer(c.ID),
			CaptchaID: c.ID,
		})
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		h.store.Set(session.PatchFromLogin(resp.Token, resp.Username, resp.Nickname, resp.RoleName))
	}

	h.shell = shell.New(h.store, h.client, nil)
	h.client.SetNavigator(h.shell)
	h.app = New(Options{API: h.client, Store: h.store, Shell: h.shell, Bus: h.bus, Server: server.URL})
	h.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// run executes cmd and feeds every result back into the app. Cursor blink
// and spinner ticks reschedule themselves, so they are dropped.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch m := msg.(type) {
	case nil, spinner.TickMsg, tea.QuitMsg:
		return
	case tea.BatchMsg:
		for _, c := range m {
			h.run(c)
		}
		return
	}
	if strings.Contains(strings.ToLower(fmt.Sprintf("%T", msg)), "blink") {
		return
	}
	_, next := h.app.Update(msg)
	h.run(next)
}

func (h *harness) send(msg tea.Msg) {
	_, cmd := h.app.Update(msg)
	h.run(cmd)
}

func (h *harness) key(k tea.KeyType) {
	h.send(tea.KeyMsg{Type: k})
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) hasToast(severity toast.Severity, substr string) bool {
	for _, ev := range h.toasts {
		if ev.Severity == severity && strings.Contains(ev.Message, substr) {
			return true
		}
	}
	return false
}
