package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/muhfadtz/TrackFinance/internal/config"
	"github.com/muhfadtz/TrackFinance/internal/database"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/relay"
	"github.com/muhfadtz/TrackFinance/internal/router"
	"github.com/muhfadtz/TrackFinance/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", logger.FieldError, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("TL_CONFIG"), "path to config file (default ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(log)

	if err := os.MkdirAll(cfg.Backup.Dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(db, log)

	if cfg.Relay.URL != "" {
		rc, err := relay.NewClient(cfg.Relay.URL, cfg.Relay.Exchange, log)
		if err != nil {
			return fmt.Errorf("connect relay: %w", err)
		}
		defer rc.Close()
		st.SetRelay(rc)
		go func() {
			if err := rc.Consume(ctx, st.Hub()); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay consumer stopped", logger.FieldError, err)
			}
		}()
		log.Info("change relay enabled", "exchange", cfg.Relay.Exchange, "instance", rc.Instance())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:           router.SetupRouter(cfg, db, st, nil, log),
		ReadHeaderTimeout: 10 * time.Second,
		// event streams end with their request contexts on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
