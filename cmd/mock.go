// ABOUTME: Mock command serving a local control plane for development
// ABOUTME: Seeded users, captcha login and the system resource endpoints

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyonmu/quebec/console/internal/config"
	"github.com/lyonmu/quebec/console/internal/logger"
	"github.com/lyonmu/quebec/console/internal/mockserver"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mockAddr string

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock control plane",
	Long: `Serve the control plane API with seeded data on a local address.

The admin credentials default to admin/admin and can be changed in the mock
section of config.yaml. When the session backend is redis, captcha answers
are kept in redis as the real control plane does.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if mockAddr != "" {
			cfg.Mock.Addr = mockAddr
		}
		log, err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Dir: cfg.Log.Dir, Console: true})
		if err != nil {
			return err
		}
		defer logger.Sync()

		return runMock(ctx, cfg, log.Named("mock"), func(addr string) {
			fmt.Fprintf(os.Stdout, "Mock control plane listening on http://%s\n", addr)
		})
	},
}

func init() {
	mockCmd.Flags().StringVar(&mockAddr, "addr", "", "Listen address (overrides mock.addr)")
	rootCmd.AddCommand(mockCmd)
}

// runMock serves until ctx is done. ready receives the bound address.
func runMock(ctx context.Context, cfg *config.Config, log *zap.Logger, ready func(addr string)) error {
	opts := []mockserver.Option{
		mockserver.WithCredentials(cfg.Mock.Username, cfg.Mock.Password),
		mockserver.WithLogger(log),
	}
	if cfg.Session.Backend == config.BackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer closeQuietly(rdb, log)
		opts = append(opts, mockserver.WithCaptchaStore(mockserver.NewRedisCaptchaStore(rdb, 0)))
	}

	ln, err := net.Listen("tcp", cfg.Mock.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Mock.Addr, err)
	}
	srv := &http.Server{
		Handler:           mockserver.New(opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("mock shutdown failed", zap.Error(err))
		}
	}()

	log.Info("mock control plane started", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready(ln.Addr().String())
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	log.Info("mock control plane stopped")
	return nil
}

func closeQuietly(c io.Closer, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("close failed", zap.Error(err))
	}
}
