// ABOUTME: Integration tests for TUI app
// ABOUTME: Tests login, navigation, forced deauth and logout transitions

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/toast"
	"github.com/lyonmu/quebec/console/internal/tui/confirm"
	"github.com/lyonmu/quebec/console/internal/tui/menu"
	"github.com/lyonmu/quebec/console/internal/tui/toasts"
)

func TestAppInitialState_NoSession(t *testing.T) {
	h := newHarness(t, false)

	if h.app.screen != ScreenLogin {
		t.Errorf("expected ScreenLogin, got %d", h.app.screen)
	}
	if h.app.login == nil {
		t.Fatal("expected login screen to be initialized")
	}

	h.run(h.app.Init())
	view := h.app.View()
	if !strings.Contains(view, "Sign in to Quebec") {
		t.Error("expected login form in view")
	}
	if !strings.Contains(view, "▀") {
		t.Error("expected captcha image in view")
	}
}

func TestAppInitialState_WithSession(t *testing.T) {
	h := newHarness(t, true)

	if h.app.screen != ScreenMain {
		t.Fatalf("expected ScreenMain, got %d", h.app.screen)
	}
	h.run(h.app.Init())

	if h.app.dash == nil || h.app.dash.Summary() == nil {
		t.Fatal("expected dashboard summary loaded")
	}
	if h.app.dash.Summary().Users != 4 {
		t.Errorf("expected 4 users, got %d", h.app.dash.Summary().Users)
	}
	view := h.app.View()
	for _, want := range []string{"Overview", "Administrator", "super", "Audit Logs"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestAppLoginFlow(t *testing.T) {
	h := newHarness(t, false)
	h.run(h.app.Init())

	snap := h.app.login.Handshake().Snapshot()
	if snap.Captcha == nil {
		t.Fatal("expected captcha loaded")
	}
	h.typeText("admin")
	h.key(tea.KeyTab)
	h.typeText("admin")
	h.key(tea.KeyTab)
	h.typeText(h.mock.CaptchaAnswer(snap.Captcha.ID))
	h.key(tea.KeyEnter)

	if h.app.screen != ScreenMain {
		t.Fatalf("expected ScreenMain after login, got %d", h.app.screen)
	}
	if !h.shell.Authenticated() || h.store.Get().Username != "admin" {
		t.Error("expected authenticated admin session")
	}
	if h.app.login != nil {
		t.Error("expected login screen released")
	}
	if !h.hasToast(toast.SeveritySuccess, "Welcome, Administrator") {
		t.Errorf("expected welcome toast, got %+v", h.toasts)
	}
	if h.app.dash == nil || h.app.dash.Summary() == nil {
		t.Error("expected dashboard loaded after login")
	}
}

func TestAppLoginFailureStaysOnLogin(t *testing.T) {
	h := newHarness(t, false)
	h.run(h.app.Init())

	snap := h.app.login.Handshake().Snapshot()
	h.typeText("admin")
	h.key(tea.KeyTab)
	h.typeText("wrong")
	h.key(tea.KeyTab)
	h.typeText(h.mock.CaptchaAnswer(snap.Captcha.ID))
	h.key(tea.KeyEnter)

	if h.app.screen != ScreenLogin {
		t.Fatal("expected to stay on login")
	}
	if !h.hasToast(toast.SeverityError, "") {
		t.Error("expected business error toast")
	}
	if got := h.app.login.Handshake().Snapshot(); got.Error == "" || got.Captcha == nil || got.Captcha.ID == snap.Captcha.ID {
		t.Errorf("expected inline error and fresh captcha, got %+v", got)
	}
}

func TestAppMenuSelectionLoadsResource(t *testing.T) {
	h := newHarness(t, true)
	h.run(h.app.Init())

	h.send(menu.SelectedMsg{View: shell.ViewSystemUsers})

	scr := h.app.screens[shell.ViewSystemUsers]
	if scr == nil || len(scr.Rows()) != 4 {
		t.Fatalf("expected users screen with 4 rows, got %+v", scr)
	}
	if h.shell.View() != shell.ViewSystemUsers || h.store.Get().CurrentView != string(shell.ViewSystemUsers) {
		t.Error("expected view change persisted")
	}
	if h.app.menu.Active() != shell.ViewSystemUsers {
		t.Error("expected sidebar highlight to follow")
	}
	if view := h.app.View(); !strings.Contains(view, "editor") || !strings.Contains(view, "e Enable/Disable") {
		t.Errorf("expected users table and action hint in view:\n%s", view)
	}
}

func TestAppOpaqueViews(t *testing.T) {
	h := newHarness(t, true)

	for _, v := range []shell.View{shell.ViewNodes, shell.ViewProxyL4, shell.ViewProxyL7, shell.ViewCerts} {
		h.send(menu.SelectedMsg{View: v})
		view := h.app.View()
		if !strings.Contains(view, "Opaque resource") || !strings.Contains(view, v.Title()) {
			t.Errorf("expected opaque notice for %s", v)
		}
	}
}

func TestAppSidebarNavigation(t *testing.T) {
	h := newHarness(t, true)
	h.run(h.app.Init())

	h.key(tea.KeyTab)
	if h.app.focus != focusSidebar {
		t.Fatal("expected sidebar focus after tab")
	}
	h.key(tea.KeyDown)
	h.key(tea.KeyEnter)

	if h.shell.View() != shell.ViewNodes {
		t.Errorf("expected NODES, got %s", h.shell.View())
	}
	if h.app.focus != focusContent {
		t.Error("expected focus back on content after selection")
	}
}

func TestAppForcedDeauthReturnsToLogin(t *testing.T) {
	h := newHarness(t, true)
	h.run(h.app.Init())

	h.mock.Revoke("1")
	h.send(menu.SelectedMsg{View: shell.ViewSystemLogs})

	if h.app.screen != ScreenLogin {
		t.Fatalf("expected login screen after 50401, got %d", h.app.screen)
	}
	if h.store.Get().Authenticated() {
		t.Error("expected session cleared")
	}
	if len(h.app.screens) != 0 {
		t.Error("expected resource screens discarded")
	}
	if h.app.login.Handshake().Snapshot().Captcha == nil {
		t.Error("expected a fresh login handshake with a captcha")
	}
}

func TestAppLogoutConfirmed(t *testing.T) {
	h := newHarness(t, true)
	h.run(h.app.Init())

	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	if h.app.dialog == nil {
		t.Fatal("expected confirm dialog")
	}
	if view := h.app.View(); !strings.Contains(view, "Sign out of Quebec?") || !strings.Contains(view, "Esc Cancel") {
		t.Errorf("expected dialog in view:\n%s", view)
	}

	h.send(confirm.ConfirmedMsg{ID: logoutDialog})

	if h.app.screen != ScreenLogin {
		t.Fatalf("expected login screen after logout, got %d", h.app.screen)
	}
	if h.store.Get().Authenticated() {
		t.Error("expected session cleared")
	}
	if !h.hasToast(toast.SeveritySuccess, "Signed out") {
		t.Errorf("expected signed out toast, got %+v", h.toasts)
	}
}

func TestAppLogoutCancelled(t *testing.T) {
	h := newHarness(t, true)

	h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	h.key(tea.KeyEsc)

	if h.app.dialog != nil {
		t.Error("expected dialog closed")
	}
	if h.app.screen != ScreenMain || !h.store.Get().Authenticated() {
		t.Error("expected to stay signed in")
	}
}

func TestAppLogoutAfterRevocation(t *testing.T) {
	h := newHarness(t, true)
	h.mock.Revoke("1")

	h.send(confirm.ConfirmedMsg{ID: logoutDialog})

	// the 50401 on logout clears the session, so the app still lands on login
	if h.app.screen != ScreenLogin {
		t.Errorf("expected login screen, got %d", h.app.screen)
	}
	if h.hasToast(toast.SeveritySuccess, "Signed out") {
		t.Error("expected no success toast for a rejected logout")
	}
}

func TestAppToastsRender(t *testing.T) {
	h := newHarness(t, true)

	_, cmd := h.app.Update(toasts.ShowMsg{Event: toast.Event{ID: "t1", Severity: toast.SeverityError, Message: "backend exploded"}})
	if cmd == nil {
		t.Error("expected expiry command")
	}
	if !strings.Contains(h.app.View(), "backend exploded") {
		t.Error("expected toast in view")
	}

	h.app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if h.app.toasts.Len() != 0 {
		t.Error("expected esc to dismiss toasts")
	}
}

func TestAppQuit(t *testing.T) {
	h := newHarness(t, true)

	_, cmd := h.app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestAppQOnLoginIsTyped(t *testing.T) {
	h := newHarness(t, false)
	h.run(h.app.Init())

	h.typeText("q")
	if h.app.login.Value(0) != "q" {
		t.Errorf("expected q typed into username, got %q", h.app.login.Value(0))
	}
}
