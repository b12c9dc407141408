// ABOUTME: Durable operator session (token, identity, current view)
// ABOUTME: Reads through to a pluggable backend on every access

package session

import (
	"sync"

	"go.uber.org/zap"
)

// Key is a persisted session field name
type Key string

// Persisted keys. Nothing outside this set is ever written or cleared.
const (
	KeyToken       Key = "x-quebec-token"
	KeyUsername    Key = "quebec-username"
	KeyNickname    Key = "quebec-nickname"
	KeyRoleName    Key = "quebec-role-name"
	KeyCurrentView Key = "quebec-current-view"
)

// Keys lists every key the store owns
var Keys = []Key{KeyToken, KeyUsername, KeyNickname, KeyRoleName, KeyCurrentView}

// Valid reports whether k belongs to the owned key set
func (k Key) Valid() bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// Session is a snapshot of the persisted fields
type Session struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	RoleName    string `json:"role_name"`
	CurrentView string `json:"current_view"`
}

// Authenticated reports whether a token is present
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Patch is a partial update; nil fields are left untouched
type Patch struct {
	Token       *string
	Username    *string
	Nickname    *string
	RoleName    *string
	CurrentView *string
}

// PatchFromLogin builds a patch that writes only the non-empty fields
func PatchFromLogin(token, username, nickname, roleName string) Patch {
	var p Patch
	if token != "" {
		p.Token = &token
	}
	if username != "" {
		p.Username = &username
	}
	if nickname != "" {
		p.Nickname = &nickname
	}
	if roleName != "" {
		p.RoleName = &roleName
	}
	return p
}

// ViewPatch builds a patch that only updates the current view
func ViewPatch(view string) Patch {
	return Patch{CurrentView: &view}
}

func (p Patch) values() map[Key]string {
	out := make(map[Key]string, len(Keys))
	if p.Token != nil {
		out[KeyToken] = *p.Token
	}
	if p.Username != nil {
		out[KeyUsername] = *p.Username
	}
	if p.Nickname != nil {
		out[KeyNickname] = *p.Nickname
	}
	if p.RoleName != nil {
		out[KeyRoleName] = *p.RoleName
	}
	if p.CurrentView != nil {
		out[KeyCurrentView] = *p.CurrentView
	}
	return out
}

// Store is the contract consumed by the HTTP client, auth and shell
type Store interface {
	Get() Session
	Set(Patch) error
	Clear() error
}

// Backend persists raw key/value pairs
type Backend interface {
	Load() (map[Key]string, error)
	Save(map[Key]string) error
	Delete(keys ...Key) error
}

// KV is a Store over a Backend
type KV struct {
	mu      sync.Mutex
	backend Backend
	log     *zap.Logger
}

// New creates a store over backend
func New(backend Backend, log *zap.Logger) *KV {
	if log == nil {
		log = zap.NewNop()
	}
	return &KV{backend: backend, log: log}
}

// Get returns the current persisted session. A backend failure reads as empty.
func (s *KV) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.backend.Load()
	if err != nil {
		s.log.Warn("session load failed", zap.Error(err))
		return Session{}
	}
	return Session{
		Token:       values[KeyToken],
		Username:    values[KeyUsername],
		Nickname:    values[KeyNickname],
		RoleName:    values[KeyRoleName],
		CurrentView: values[KeyCurrentView],
	}
}

// Set writes the non-nil fields of p
func (s *KV) Set(p Patch) error {
	values := p.values()
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Save(values); err != nil {
		s.log.Error("session save failed", zap.Error(err))
		return err
	}
	return nil
}

// Clear removes every owned key. Clearing an empty store is a no-op.
func (s *KV) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(Keys...); err != nil {
		s.log.Error("session clear failed", zap.Error(err))
		return err
	}
	return nil
}
