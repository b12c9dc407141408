// ABOUTME: Top-level authentication gate and view router
// ABOUTME: Derives login state from the session store and persists the selected view

package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/session"
	"go.uber.org/zap"
)

// View identifies a console screen
type View string

const (
	ViewDashboard         View = "DASHBOARD"
	ViewNodes             View = "NODES"
	ViewProxyL4           View = "PROXY_L4"
	ViewProxyL7           View = "PROXY_L7"
	ViewCerts             View = "CERTS"
	ViewSystemUsers       View = "SYSTEM_USERS"
	ViewSystemOnlineUsers View = "SYSTEM_ONLINE_USERS"
	ViewSystemRoles       View = "SYSTEM_ROLES"
	ViewSystemMenus       View = "SYSTEM_MENUS"
	ViewSystemLogs        View = "SYSTEM_LOGS"
)

// DefaultView is shown when nothing valid is persisted
const DefaultView = ViewDashboard

// Views lists every view in navigation order
var Views = []View{
	ViewDashboard,
	ViewNodes,
	ViewProxyL4,
	ViewProxyL7,
	ViewCerts,
	ViewSystemUsers,
	ViewSystemOnlineUsers,
	ViewSystemRoles,
	ViewSystemMenus,
	ViewSystemLogs,
}

var titles = map[View]string{
	ViewDashboard:         "Dashboard",
	ViewNodes:             "Gateway Nodes",
	ViewProxyL4:           "L4 Proxies",
	ViewProxyL7:           "L7 Routes",
	ViewCerts:             "Certificates",
	ViewSystemUsers:       "Users",
	ViewSystemOnlineUsers: "Online Users",
	ViewSystemRoles:       "Roles",
	ViewSystemMenus:       "Menus",
	ViewSystemLogs:        "Audit Logs",
}

// Valid reports whether v is a known view
func (v View) Valid() bool {
	_, ok := titles[v]
	return ok
}

// Title returns the display name
func (v View) Title() string {
	if t, ok := titles[v]; ok {
		return t
	}
	return string(v)
}

// ParseView returns the view named s, or DefaultView and false
func ParseView(s string) (View, bool) {
	v := View(s)
	if v.Valid() {
		return v, true
	}
	return DefaultView, false
}

// ErrUnknownView is returned for views outside the known set
var ErrUnknownView = errors.New("unknown view")

// LogoutAPI is the backend call used on logout
type LogoutAPI interface {
	Logout(ctx context.Context) (*client.Response, error)
}

// Shell tracks whether the operator is logged in and which view is active
type Shell struct {
	mu            sync.Mutex
	store         session.Store
	api           LogoutAPI
	log           *zap.Logger
	authenticated bool
	view          View
}

// New derives the initial state from the store
func New(store session.Store, api LogoutAPI, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Shell{store: store, api: api, log: log}
	sess := store.Get()
	s.authenticated = sess.Authenticated()
	s.view, _ = ParseView(sess.CurrentView)
	return s
}

// Authenticated reports whether the login screen should be hidden
func (s *Shell) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// View returns the active view
func (s *Shell) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Session returns the persisted identity for display
func (s *Shell) Session() session.Session {
	return s.store.Get()
}

// ChangeView switches to v and persists it
func (s *Shell) ChangeView(v View) error {
	if !v.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownView, v)
	}

	s.mu.Lock()
	s.view = v
	s.mu.Unlock()

	if err := s.store.Set(session.ViewPatch(string(v))); err != nil {
		s.log.Warn("failed to persist view", zap.String("view", string(v)), zap.Error(err))
		return err
	}
	return nil
}

// LoggedIn is the login success callback. The login state follows the
// stored token, so a callback without one leaves the shell signed out.
func (s *Shell) LoggedIn() {
	authenticated := s.store.Get().Authenticated()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = authenticated
	if !authenticated {
		s.log.Warn("login callback without a stored token")
		return
	}
	s.log.Info("operator logged in")
}

// Logout ends the session on the backend, then locally on success only
func (s *Shell) Logout(ctx context.Context) error {
	resp, err := s.api.Logout(ctx)
	if err != nil {
		s.log.Error("logout failed", zap.Error(err))
		return err
	}
	if resp == nil || !resp.Enveloped || resp.Code != client.CodeSuccess {
		err := errors.New("logout was not confirmed by the server")
		s.log.Error("logout failed", zap.Error(err))
		return err
	}

	if err := s.store.Clear(); err != nil {
		s.log.Error("failed to clear session after logout", zap.Error(err))
	}

	s.mu.Lock()
	s.authenticated = false
	s.view = DefaultView
	s.mu.Unlock()

	s.log.Info("operator logged out")
	return nil
}

// ToRoot is the hard redirect performed on an HTTP 401
func (s *Shell) ToRoot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = s.store.Get().Authenticated()
	s.view = DefaultView
	s.log.Warn("redirected to root after unauthorized response")
}

// Revalidate re-derives the login state from the store and reports it
func (s *Shell) Revalidate() bool {
	authenticated := s.store.Get().Authenticated()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authenticated && !authenticated {
		s.log.Info("session cleared, returning to login")
	}
	s.authenticated = authenticated
	return authenticated
}
