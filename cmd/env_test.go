// ABOUTME: Shared fixtures for command tests
// ABOUTME: Wires commands to an in-process mock control plane

package cmd

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/config"
	"github.com/lyonmu/quebec/console/internal/logger"
	"github.com/lyonmu/quebec/console/internal/mockserver"
	"github.com/lyonmu/quebec/console/internal/session"
)

func newTestEnv(t *testing.T) (*env, *mockserver.Server) {
	t.Helper()
	mock := mockserver.New()
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	cfg := config.Default("")
	cfg.Server = server.URL
	cfg.Session.Backend = config.BackendMemory
	return wire(cfg, session.New(session.NewMemoryBackend(), nil), logger.Nop()), mock
}

func signIn(t *testing.T, e *env, mock *mockserver.Server, username, password string) {
	t.Helper()
	ctx := context.Background()
	c, err := e.client.Captcha(ctx)
	if err != nil {
		t.Fatalf("captcha: %v", err)
	}
	resp, err := e.client.Login(ctx, client.LoginRequest{
		Username:  client.HashCredential(username),
		Password:  client.HashCredential(password),
		Captcha:   mock.CaptchaAnswer(c.ID),
		CaptchaID: c.ID,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	e.store.Set(session.PatchFromLogin(resp.Token, resp.Username, resp.Nickname, resp.RoleName))
}

func withJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}
