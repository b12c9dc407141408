// ABOUTME: Captcha-gated login state machine
// ABOUTME: Owns the current challenge, local validation and the session write on success

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/session"
	"go.uber.org/zap"
)

// State is the handshake phase
type State int

const (
	StateUnauthenticated State = iota
	StateCaptchaLoading
	StateCaptchaReady
	StateSubmitting
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateCaptchaLoading:
		return "captcha-loading"
	case StateCaptchaReady:
		return "captcha-ready"
	case StateSubmitting:
		return "submitting"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const (
	msgCaptchaFailed  = "Failed to load captcha. Please try again."
	msgNoCaptcha      = "Please load captcha first"
	msgLoginFailed    = "Login failed"
	msgMissingFields  = "Username and password are required"
	msgAlreadyRunning = "Login already in progress"
	msgSessionFailed  = "Failed to save session"
)

// ValidationError is a local precondition failure; no request was sent
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrUnmounted is returned once the handshake has been torn down
var ErrUnmounted = errors.New("login screen closed")

// API is the subset of the client the handshake calls
type API interface {
	Captcha(ctx context.Context) (*client.Captcha, error)
	Login(ctx context.Context, req client.LoginRequest) (*client.LoginResponse, error)
}

// Snapshot is a copy of the observable handshake state
type Snapshot struct {
	State   State
	Captcha *client.Captcha
	Code    string
	Error   string
}

// Loading reports whether a captcha fetch is running
func (s Snapshot) Loading() bool {
	return s.State == StateCaptchaLoading
}

// Handshake drives one login attempt sequence
type Handshake struct {
	mu          sync.Mutex
	api         API
	store       session.Store
	onLogin     func(client.LoginResponse)
	log         *zap.Logger
	state       State
	captcha     *client.Captcha
	code        string
	err         string
	initialized bool
	unmounted   bool
	fetchGen    uint64
}

// New creates a handshake. onLogin runs after the session has been written.
func New(api API, store session.Store, onLogin func(client.LoginResponse), log *zap.Logger) *Handshake {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handshake{api: api, store: store, onLogin: onLogin, log: log}
}

// Mount fetches the first challenge. Later calls do nothing.
func (h *Handshake) Mount(ctx context.Context) error {
	h.mu.Lock()
	if h.initialized || h.unmounted {
		h.mu.Unlock()
		return nil
	}
	h.initialized = true
	h.mu.Unlock()

	return h.LoadCaptcha(ctx)
}

// Unmount discards any results that arrive afterwards
func (h *Handshake) Unmount() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unmounted = true
}

// LoadCaptcha replaces the current challenge with a fresh one
func (h *Handshake) LoadCaptcha(ctx context.Context) error {
	return h.loadCaptcha(ctx, true)
}

func (h *Handshake) loadCaptcha(ctx context.Context, resetError bool) error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}
	h.state = StateCaptchaLoading
	h.captcha = nil
	if resetError {
		h.err = ""
	}
	h.fetchGen++
	gen := h.fetchGen
	h.mu.Unlock()

	captcha, err := h.api.Captcha(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unmounted {
		return ErrUnmounted
	}
	if gen != h.fetchGen {
		// a newer fetch owns the state
		return nil
	}
	if err != nil || captcha == nil {
		if err == nil {
			err = errors.New("empty captcha response")
		}
		h.log.Warn("captcha fetch failed", zap.Error(err))
		h.state = StateUnauthenticated
		if resetError || h.err == "" {
			h.err = msgCaptchaFailed
		}
		return err
	}

	c := *captcha
	h.captcha = &c
	if h.state == StateCaptchaLoading {
		h.state = StateCaptchaReady
	}
	return nil
}

// SetCode stores the entered challenge response, upper-cased
func (h *Handshake) SetCode(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.code = strings.ToUpper(code)
}

// Submit validates locally, then sends digested credentials
func (h *Handshake) Submit(ctx context.Context, username, password string) error {
	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}
	if h.state == StateSubmitting {
		h.mu.Unlock()
		return &ValidationError{Message: msgAlreadyRunning}
	}
	h.err = ""

	if h.captcha == nil {
		return h.rejectLocked(msgNoCaptcha)
	}
	if len([]rune(h.code)) != h.captcha.Length {
		return h.rejectLocked(fmt.Sprintf("Captcha must be %d characters", h.captcha.Length))
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return h.rejectLocked(msgMissingFields)
	}

	req := client.LoginRequest{
		Username:  client.HashCredential(username),
		Password:  client.HashCredential(password),
		Captcha:   h.code,
		CaptchaID: h.captcha.ID,
	}
	h.state = StateSubmitting
	h.mu.Unlock()

	resp, err := h.api.Login(ctx, req)

	h.mu.Lock()
	if h.unmounted {
		h.mu.Unlock()
		return ErrUnmounted
	}

	if err == nil && (resp == nil || resp.Token == "") {
		err = errors.New(msgLoginFailed)
	}
	if err == nil {
		if serr := h.store.Set(session.PatchFromLogin(resp.Token, resp.Username, resp.Nickname, resp.RoleName)); serr != nil {
			h.log.Error("failed to persist session", zap.Error(serr))
			if cerr := h.store.Clear(); cerr != nil {
				h.log.Warn("failed to discard partial session", zap.Error(cerr))
			}
			err = fmt.Errorf("%s: %w", msgSessionFailed, serr)
		}
	}

	if err == nil {
		h.state = StateAuthenticated
		h.code = ""
		onLogin := h.onLogin
		h.mu.Unlock()

		h.log.Info("login succeeded", zap.String("username", resp.Username))
		if onLogin != nil {
			onLogin(*resp)
		}
		return nil
	}

	msg := msgLoginFailed
	if err.Error() != "" {
		msg = err.Error()
	}
	h.log.Warn("login failed", zap.String("reason", msg))
	h.err = msg
	h.code = ""
	h.state = StateCaptchaReady
	h.mu.Unlock()

	if ferr := h.loadCaptcha(ctx, false); ferr != nil && !errors.Is(ferr, ErrUnmounted) {
		h.log.Warn("captcha refresh after failed login failed", zap.Error(ferr))
	}
	return err
}

// rejectLocked records a local validation failure and releases the lock
func (h *Handshake) rejectLocked(msg string) error {
	h.err = msg
	h.mu.Unlock()
	return &ValidationError{Message: msg}
}

// Snapshot returns the current state for rendering
func (h *Handshake) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Snapshot{State: h.state, Code: h.code, Error: h.err}
	if h.captcha != nil {
		c := *h.captcha
		s.Captcha = &c
	}
	return s
}
