// ABOUTME: In-process control plane serving the system API for development and tests
// ABOUTME: Issues captchas and tokens, enforces x-quebec-token and answers with envelopes

package mockserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/mojocn/base64Captcha"
	"go.uber.org/zap"
)

// Messages returned with the failure codes
const (
	MsgInvalidCaptcha = "invalid captcha"
	MsgBadCredentials = "invalid username or password"
	MsgUserDisabled   = "user is disabled"
	MsgRoleDisabled   = "role is disabled"
	MsgUnauthorized   = "token is invalid or expired"
	MsgInvalidParams  = "invalid parameters"
	MsgNotFound       = "record not found"
)

// Option configures a Server
type Option func(*Server)

// WithCredentials sets the administrator login
func WithCredentials(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithCaptchaStore replaces the in-memory captcha answer store
func WithCaptchaStore(store base64Captcha.Store) Option {
	return func(s *Server) {
		s.captchaStore = store
	}
}

// WithLogger sets the request logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithClock overrides time.Now for seeded timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the mock control plane
type Server struct {
	username     string
	password     string
	captchaStore base64Captcha.Store
	captcha      *base64Captcha.Captcha
	log          *zap.Logger
	now          func() time.Time
	router       *mux.Router

	mu     sync.Mutex
	data   *dataset
	tokens map[string]string // token -> user ID
}

// New builds a Server with seeded data
func New(opts ...Option) *Server {
	s := &Server{
		username: "admin",
		password: "admin",
		log:      zap.NewNop(),
		now:      time.Now,
		tokens:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.captchaStore == nil {
		s.captchaStore = base64Captcha.NewMemoryStore(base64Captcha.GCLimitNumber, captchaTTL)
	}
	s.captcha = newCaptcha(s.captchaStore)
	s.data = seed(s.username, s.password, s.now())
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix(client.DefaultBasePath + "/v1/system").Subrouter()
	api.HandleFunc("/captcha", s.handleCaptcha).Methods(http.MethodGet)
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)

	authed := func(h http.HandlerFunc) http.Handler {
		return s.requireToken(h)
	}
	api.Handle("/logout", authed(s.handleLogout)).Methods(http.MethodGet)
	api.Handle("/user/page", authed(s.handleUserPage)).Methods(http.MethodGet)
	api.Handle("/user/label", authed(s.handleUserLabels)).Methods(http.MethodGet)
	api.Handle("/user/{id}", authed(s.handleUserDetail)).Methods(http.MethodGet)
	api.Handle("/user/enable/{id}", authed(s.handleUserEnable)).Methods(http.MethodPut)
	api.Handle("/role/page", authed(s.handleRolePage)).Methods(http.MethodGet)
	api.Handle("/role/label", authed(s.handleRoleLabels)).Methods(http.MethodGet)
	api.Handle("/role/enable/{id}", authed(s.handleRoleEnable)).Methods(http.MethodPut)
	api.Handle("/menu/tree", authed(s.handleMenuTree)).Methods(http.MethodGet)
	api.Handle("/onlineuser/list", authed(s.handleOnlineUsers)).Methods(http.MethodGet)
	api.Handle("/onlineuser/clearance/{id}", authed(s.handleClearance)).Methods(http.MethodDelete)
	api.Handle("/operation-log/page", authed(s.handleOperationLogs)).Methods(http.MethodGet)
	return r
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CaptchaAnswer returns the expected answer for a challenge without consuming it
func (s *Server) CaptchaAnswer(id string) string {
	return s.captchaStore.Get(id, false)
}

// Revoke invalidates every token held by the user, as a server-side kick does
func (s *Server) Revoke(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revokeLocked(userID)
}

func (s *Server) revokeLocked(userID string) int {
	n := 0
	for tok, id := range s.tokens {
		if id == userID {
			delete(s.tokens, tok)
			n++
		}
	}
	return n
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type ctxUser struct{}

func currentUser(r *http.Request) string {
	id, _ := r.Context().Value(ctxUser{}).(string)
	return id
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(client.TokenHeader)
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeEnvelope(w, client.CodeUnauthorized, nil, MsgUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser{}, userID)))
	})
}

func writeEnvelope(w http.ResponseWriter, code int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"data":    data,
		"message": message,
	})
}

func ok(w http.ResponseWriter, data any) {
	writeEnvelope(w, client.CodeSuccess, data, "success")
}

func params(r *http.Request) map[string]string {
	out := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	id, b64s, _, err := s.captcha.Generate()
	if err != nil {
		s.log.Error("captcha generation failed", zap.Error(err))
		writeEnvelope(w, client.CodeFailed, nil, "failed to generate captcha")
		return
	}
	ok(w, client.Captcha{ID: id, Pictures: b64s, Length: CaptchaLength})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, client.CodeInvalidParams, nil, MsgInvalidParams)
		return
	}
	if req.CaptchaID == "" || req.Captcha == "" || !s.captcha.Verify(req.CaptchaID, req.Captcha, true) {
		s.log.Info("login rejected", zap.String("reason", "captcha"))
		writeEnvelope(w, client.CodeInvalidCaptcha, nil, MsgInvalidCaptcha)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.data.accountByHash(req.Username)
	if acc == nil || acc.password != req.Password {
		s.log.Info("login rejected", zap.String("reason", "credentials"))
		writeEnvelope(w, client.CodeUserPasswordError, nil, MsgBadCredentials)
		return
	}
	if acc.user.Status != client.StatusEnabled {
		writeEnvelope(w, client.CodeFailed, nil, MsgUserDisabled)
		return
	}
	if s.data.roleStatus(acc.user.RoleID) != client.StatusEnabled {
		writeEnvelope(w, client.CodeRoleDisabled, nil, MsgRoleDisabled)
		return
	}

	token := uuid.NewString()
	s.tokens[token] = acc.user.ID
	now := s.now()
	acc.user.LastLoginTime = now.Unix()
	s.data.markOnline(acc.user, clientIP(r), client.OperationLogin, now)
	s.data.appendLog(acc.user, clientIP(r), client.OperationLogin, now)

	s.log.Info("login", zap.String("user", acc.user.Username))
	ok(w, client.LoginResponse{
		Token:    token,
		Username: acc.user.Username,
		Nickname: acc.user.Nickname,
		RoleName: acc.user.RoleName,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(client.TokenHeader)
	userID := currentUser(r)

	s.mu.Lock()
	delete(s.tokens, token)
	if acc := s.data.accountByID(userID); acc != nil {
		s.data.appendLog(acc.user, clientIP(r), client.OperationLogout, s.now())
	}
	s.data.markOffline(userID)
	s.mu.Unlock()

	ok(w, nil)
}

func (s *Server) handleUserPage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := s.data.users(params(r))
	s.mu.Unlock()
	ok(w, paginate(users, params(r)))
}

func (s *Server) handleUserLabels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]client.Label, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		labels = append(labels, client.Label{Label: a.user.Nickname, Value: a.user.ID})
	}
	ok(w, labels)
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.data.accountByID(mux.Vars(r)["id"])
	if acc == nil {
		writeEnvelope(w, client.CodeFailed, nil, MsgNotFound)
		return
	}
	ok(w, acc.user)
}

func (s *Server) handleUserEnable(w http.ResponseWriter, r *http.Request) {
	var req client.EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Status != client.StatusEnabled && req.Status != client.StatusDisabled) {
		writeEnvelope(w, client.CodeInvalidParams, nil, MsgInvalidParams)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.data.accountByID(mux.Vars(r)["id"])
	if acc == nil {
		writeEnvelope(w, client.CodeFailed, nil, MsgNotFound)
		return
	}
	acc.user.Status = req.Status
	if req.Status == client.StatusDisabled {
		s.revokeLocked(acc.user.ID)
		s.data.markOffline(acc.user.ID)
	}
	ok(w, nil)
}

func (s *Server) handleRolePage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	roles := s.data.rolesMatching(params(r))
	s.mu.Unlock()
	ok(w, paginate(roles, params(r)))
}

func (s *Server) handleRoleLabels(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]client.Label, 0, len(s.data.roles))
	for _, role := range s.data.roles {
		labels = append(labels, client.Label{Label: role.Name, Value: role.ID})
	}
	ok(w, labels)
}

func (s *Server) handleRoleEnable(w http.ResponseWriter, r *http.Request) {
	var req client.EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Status != client.StatusEnabled && req.Status != client.StatusDisabled) {
		writeEnvelope(w, client.CodeInvalidParams, nil, MsgInvalidParams)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.roles {
		if s.data.roles[i].ID == mux.Vars(r)["id"] {
			if s.data.roles[i].System == client.StatusEnabled {
				writeEnvelope(w, client.CodeFailed, nil, "system role cannot be changed")
				return
			}
			s.data.roles[i].Status = req.Status
			ok(w, nil)
			return
		}
	}
	writeEnvelope(w, client.CodeFailed, nil, MsgNotFound)
}

func (s *Server) handleMenuTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok(w, s.data.menus)
}

func (s *Server) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	online := s.data.onlineMatching(params(r))
	s.mu.Unlock()
	ok(w, paginate(online, params(r)))
}

func (s *Server) handleClearance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.data.markOffline(id) {
		writeEnvelope(w, client.CodeFailed, nil, MsgNotFound)
		return
	}
	s.revokeLocked(id)
	if acc := s.data.accountByID(currentUser(r)); acc != nil {
		s.data.appendLog(acc.user, clientIP(r), client.OperationOnlineUserClearance, s.now())
	}
	ok(w, nil)
}

func (s *Server) handleOperationLogs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	logs := s.data.logsMatching(params(r))
	s.mu.Unlock()
	ok(w, paginate(logs, params(r)))
}
