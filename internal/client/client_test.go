// ABOUTME: Tests for the Quebec API client core
// ABOUTME: Uses httptest to drive every envelope and transport failure path

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/toast"
)

type toastRecorder struct {
	mu     sync.Mutex
	events []toast.Event
}

func (r *toastRecorder) listen(ev toast.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *toastRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Message
	}
	return out
}

type harness struct {
	client *Client
	store  *session.KV
	toasts *toastRecorder
	nav    int
}

func newHarness(t *testing.T, baseURL string, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		store:  session.New(session.NewMemoryBackend(), nil),
		toasts: &toastRecorder{},
	}
	bus := toast.New(nil)
	bus.Subscribe(h.toasts.listen)
	all := append([]Option{
		WithSession(h.store),
		WithBus(bus),
		WithNavigator(NavigatorFunc(func() { h.nav++ })),
	}, opts...)
	h.client = New(baseURL, all...)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.store.Set(session.PatchFromLogin("tok-123", "alice", "Alice", "admin")); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	_ = h.store.Set(session.ViewPatch("SYSTEM_USERS"))
}

func envelope(w http.ResponseWriter, code int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": code, "data": data, "message": message})
}

func TestDo_InjectsTokenWhenPresent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(TokenHeader)
		envelope(w, CodeSuccess, nil, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	if _, err := h.client.Get(context.Background(), "/v1/system/user/page", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("expected token header tok-123, got %q", got)
	}
}

func TestDo_OmitsTokenWhenAbsent(t *testing.T) {
	present := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header[http.CanonicalHeaderKey(TokenHeader)]
		envelope(w, CodeSuccess, nil, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	if _, err := h.client.Get(context.Background(), "/v1/system/captcha", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("expected no token header without a session")
	}
}

func TestDo_ReadsTokenAtDispatchTime(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get(TokenHeader))
		envelope(w, CodeSuccess, nil, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.client.Get(context.Background(), "/a", nil)
	h.login(t)
	h.client.Get(context.Background(), "/b", nil)

	if tokens[0] != "" || tokens[1] != "tok-123" {
		t.Errorf("expected [\"\" tok-123], got %q", tokens)
	}
}

func TestDo_SuccessEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, CodeSuccess, map[string]int{"total": 3}, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	resp, err := h.client.Get(context.Background(), "/x", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Enveloped || resp.Code != CodeSuccess || resp.Message != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}

	env, err := Decode[map[string]int](resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data["total"] != 3 {
		t.Errorf("expected total 3, got %d", env.Data["total"])
	}
	if len(h.toasts.messages()) != 0 {
		t.Errorf("expected no toast on success, got %v", h.toasts.messages())
	}
}

func TestDo_ForcedDeauthCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, CodeUnauthorized, nil, "token expired")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	_, err := h.client.Get(context.Background(), "/v1/system/user/page", nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if KindOf(err) != KindUnauthorized {
		t.Errorf("expected KindUnauthorized, got %v", KindOf(err))
	}
	if got := h.store.Get(); got != (session.Session{}) {
		t.Errorf("expected every session key cleared, got %+v", got)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "token expired" {
		t.Errorf("expected one toast 'token expired', got %v", msgs)
	}
	if h.nav != 0 {
		t.Error("expected no navigation for business-level deauth")
	}
}

func TestDo_BusinessErrorLeavesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, CodeInvalidCaptcha, nil, "invalid captcha")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	_, err := h.client.Post(context.Background(), "/v1/system/login", map[string]string{})
	if !IsBusiness(err) {
		t.Fatalf("expected business error, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Code != CodeInvalidCaptcha {
		t.Errorf("expected code %d, got %+v", CodeInvalidCaptcha, apiErr)
	}
	if err.Error() != "invalid captcha" {
		t.Errorf("expected message 'invalid captcha', got %q", err.Error())
	}
	if h.store.Get().Token != "tok-123" {
		t.Error("expected session untouched on business error")
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "invalid captcha" {
		t.Errorf("expected one toast, got %v", msgs)
	}
}

func TestDo_BusinessErrorWithoutMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, CodeFailed, nil, "")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	_, err := h.client.Get(context.Background(), "/x", nil)
	if err == nil || err.Error() != "Request failed" {
		t.Fatalf("expected 'Request failed', got %v", err)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "Request failed" {
		t.Errorf("expected fallback toast, got %v", msgs)
	}
}

func TestDo_NonEnvelopePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"up"}`))
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	resp, err := h.client.Get(context.Background(), "/healthz", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Enveloped {
		t.Error("expected raw response")
	}
	if string(resp.Raw) != `{"status":"up"}` {
		t.Errorf("unexpected raw body %s", resp.Raw)
	}
	env, err := Decode[map[string]string](resp)
	if err != nil || env.Data["status"] != "up" {
		t.Errorf("expected raw decode into data, got %+v %v", env, err)
	}
	if h.store.Get().Token != "tok-123" || len(h.toasts.messages()) != 0 {
		t.Error("expected no side effects on raw passthrough")
	}
}

func TestDo_PlainTextPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	resp, err := h.client.Get(context.Background(), "/ping", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Raw) != "pong" {
		t.Errorf("expected pong, got %s", resp.Raw)
	}
}

func TestDo_HTTPErrorUsesBodyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "database down"})
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	_, err := h.client.Get(context.Background(), "/x", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindHTTP || apiErr.Status != 500 {
		t.Fatalf("expected HTTP 500 error, got %v", err)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "database down" {
		t.Errorf("expected toast 'database down', got %v", msgs)
	}
	if h.store.Get().Token != "tok-123" {
		t.Error("expected session untouched on HTTP 500")
	}
	if h.nav != 0 {
		t.Error("expected no navigation on HTTP 500")
	}
}

func TestDo_HTTPErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	_, err := h.client.Get(context.Background(), "/x", nil)
	if err == nil || err.Error() != "HTTP 502" {
		t.Fatalf("expected 'HTTP 502', got %v", err)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "HTTP 502" {
		t.Errorf("expected toast 'HTTP 502', got %v", msgs)
	}
}

func TestDo_HTTPForbiddenLeavesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	_, err := h.client.Get(context.Background(), "/x", nil)
	if err == nil || IsUnauthorized(err) {
		t.Fatalf("expected non-unauthorized error, got %v", err)
	}
	if !h.store.Get().Authenticated() {
		t.Error("expected session untouched on HTTP 403")
	}
}

func TestDo_HTTPUnauthorizedClearsAndNavigates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "login required"})
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.login(t)

	_, err := h.client.Get(context.Background(), "/x", nil)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if h.store.Get() != (session.Session{}) {
		t.Error("expected session cleared on HTTP 401")
	}
	if h.nav != 1 {
		t.Errorf("expected one navigation to root, got %d", h.nav)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != "login required" {
		t.Errorf("expected toast 'login required', got %v", msgs)
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	h := newHarness(t, url)
	h.login(t)

	_, err := h.client.Get(context.Background(), "/x", nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if msgs := h.toasts.messages(); len(msgs) != 1 || msgs[0] != msgNetwork {
		t.Errorf("expected generic network toast, got %v", msgs)
	}
	if !h.store.Get().Authenticated() {
		t.Error("expected session untouched on network error")
	}
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		envelope(w, CodeSuccess, nil, "late")
	}))
	defer server.Close()

	h := newHarness(t, server.URL, WithTimeout(20*time.Millisecond))
	_, err := h.client.Get(context.Background(), "/slow", nil)
	if !IsNetwork(err) {
		t.Fatalf("expected network error on timeout, got %v", err)
	}
	if len(h.toasts.messages()) != 1 {
		t.Errorf("expected one toast, got %v", h.toasts.messages())
	}
}

func TestDo_RequestSetupError(t *testing.T) {
	h := newHarness(t, "http://127.0.0.1:1")

	_, err := h.client.Post(context.Background(), "/x", map[string]any{"bad": make(chan int)})
	if KindOf(err) != KindRequest {
		t.Fatalf("expected request setup error, got %v", err)
	}
	msgs := h.toasts.messages()
	if len(msgs) != 1 || msgs[0] != err.Error() {
		t.Errorf("expected toast with setup error message, got %v", msgs)
	}
}

func TestDo_CanceledContextSkipsToast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		envelope(w, CodeSuccess, nil, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.client.Get(ctx, "/x", nil)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if len(h.toasts.messages()) != 0 {
		t.Errorf("expected no toast for a canceled request, got %v", h.toasts.messages())
	}
}

func TestDo_SendsQueryAndBody(t *testing.T) {
	var gotQuery, gotMethod, gotType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		envelope(w, CodeSuccess, nil, "ok")
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	h.client.Do(context.Background(), http.MethodPatch, "/x", map[string][]string{"page": {"2"}}, map[string]string{"k": "v"})

	if gotMethod != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotQuery != "page=2" {
		t.Errorf("expected page=2, got %s", gotQuery)
	}
	if gotType != "application/json" {
		t.Errorf("expected JSON content type, got %s", gotType)
	}
	if gotBody["k"] != "v" {
		t.Errorf("expected body k=v, got %v", gotBody)
	}
}

func TestDecode_InvalidData(t *testing.T) {
	resp := &Response{Enveloped: true, Code: CodeSuccess, Data: []byte(`"text"`)}
	_, err := Decode[map[string]int](resp)
	if KindOf(err) != KindDecode {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestAPIRoot(t *testing.T) {
	tests := []struct {
		server, base, want string
	}{
		{"http://localhost:8080", "", "http://localhost:8080/core/api"},
		{"http://localhost:8080/", "/core/api", "http://localhost:8080/core/api"},
		{"https://gw.example", "api", "https://gw.example/api"},
	}
	for _, tt := range tests {
		if got := APIRoot(tt.server, tt.base); got != tt.want {
			t.Errorf("APIRoot(%q, %q) = %q, want %q", tt.server, tt.base, got, tt.want)
		}
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New("http://localhost")
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", c.httpClient.Timeout)
	}
}
