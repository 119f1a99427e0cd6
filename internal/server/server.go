package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stepworks/streakd/internal/logger"
	"github.com/stepworks/streakd/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	Addr         string
	AllowOrigins []string
	LockfilePath string
	Debug        bool
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, svc *tracker.Service, cfg Config) error {
	if cfg.LockfilePath != "" {
		if lock, err := RunningServer(cfg.LockfilePath); err == nil {
			return fmt.Errorf("a server is already running on %s (pid %d)", lock.Addr, lock.PID)
		}
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(RouterConfig{Service: svc, AllowOrigins: cfg.AllowOrigins}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.LockfilePath != "" {
		if err := WriteLockfile(cfg.LockfilePath, cfg.Addr); err != nil {
			logger.Warn("Failed to write lockfile", "path", cfg.LockfilePath, "error", err)
		}
		defer RemoveLockfile(cfg.LockfilePath)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
