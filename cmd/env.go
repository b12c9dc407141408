// ABOUTME: Builds the collaborators shared by the TUI and subcommands
// ABOUTME: Config, logger, session store, toast bus, API client and shell

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/config"
	"github.com/lyonmu/quebec/console/internal/logger"
	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/lyonmu/quebec/console/internal/shell"
	"github.com/lyonmu/quebec/console/internal/toast"
	"go.uber.org/zap"
)

// errNoSession is reported by commands that need a signed-in operator
var errNoSession = errors.New("not logged in, run 'quebec login' first")

// env holds the wired application
type env struct {
	cfg    *config.Config
	log    *zap.Logger
	store  session.Store
	bus    *toast.Bus
	client *client.Client
	shell  *shell.Shell
	close  func() error
}

// newEnv loads configuration and wires every collaborator
func newEnv(ctx context.Context) (*env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.Log.Dir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, closeStore, err := cfg.NewSessionStore(ctx, ConfigDir(), log.Named("session"))
	if err != nil {
		return nil, err
	}

	e := wire(cfg, store, log)
	e.close = closeStore
	log.Debug("console initialized",
		zap.String("server", cfg.Server),
		zap.String("profile", cfg.Profile),
		zap.String("session_backend", cfg.Session.Backend))
	return e, nil
}

// wire connects a store to a fresh bus, client and shell
func wire(cfg *config.Config, store session.Store, log *zap.Logger) *env {
	bus := toast.New(log.Named("toast"))
	c := client.New(cfg.APIRoot(),
		client.WithSession(store),
		client.WithBus(bus),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log.Named("client")),
	)
	sh := shell.New(store, c, log.Named("shell"))
	c.SetNavigator(sh)

	return &env{cfg: cfg, log: log, store: store, bus: bus, client: c, shell: sh, close: func() error { return nil }}
}

// Close releases the session backend and flushes the log
func (e *env) Close() {
	if err := e.close(); err != nil {
		e.log.Warn("failed to close session backend", zap.Error(err))
	}
	logger.Sync()
}

// requireSession fails when no token is stored
func (e *env) requireSession(w io.Writer) bool {
	if e.store.Get().Authenticated() {
		return true
	}
	fmt.Fprintf(w, "Error: %v\n", errNoSession)
	return false
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case client.IsBusiness(err):
		return exitBusiness
	default:
		return exitError
	}
}

// fail prints err and returns its exit code
func fail(w io.Writer, err error) int {
	if client.IsUnauthorized(err) {
		fmt.Fprintf(w, "Error: %v (session cleared, run 'quebec login')\n", err)
		return exitError
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitCode(err)
}

// withEnv builds the environment, runs fn and releases it
func withEnv(ctx context.Context, w io.Writer, fn func(*env) int) int {
	e, err := newEnv(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	defer e.Close()
	return fn(e)
}
