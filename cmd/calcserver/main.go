// Command calcserver serves combat computations over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/catalog"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/combat"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/config"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/effects"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/logging"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/server"
	"github.com/zekash-dev/ti-sa-combat-calc-sub000/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine := combat.NewEngine(catalog.Default(), effects.Default(), combat.Options{
		MaxRounds:      cfg.MaxRounds,
		SimplifyTarget: cfg.SimplifyTarget,
		Logger:         logger.Named("engine"),
	})
	pool := worker.NewPool(engine, cfg.Workers, logger.Named("worker"))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(pool, logger.Named("server")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.Int("workers", cfg.Workers))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
