// Worker deletes expired sessions from the configured store every PURGE_INTERVAL.
// MongoDB and Redis also expire sessions on their own; the worker keeps Postgres tidy.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-token-service/internal/config"
	"session-token-service/internal/db"
	"session-token-service/internal/security"
	"session-token-service/internal/session/service"
	"session-token-service/internal/session/store"
	telemetry "session-token-service/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	key, err := security.DeriveSigningKey(cfg.TokenJWTSecret)
	if err != nil {
		log.Error("signing key", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName+"-worker", cfg.OTLPInsecure, log)
	if err != nil {
		log.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	var pg *sql.DB
	if cfg.DatabaseURL != "" {
		if pg, err = db.OpenWithRetry(ctx, cfg.DatabaseURL, 30*time.Second); err != nil {
			log.Error("database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
	}
	sessions, err := store.Open(ctx, cfg, pg, nil)
	if err != nil {
		log.Error("session store", "store", cfg.SessionStore, "error", err)
		os.Exit(1)
	}
	defer sessions.Close(context.Background())

	metrics, err := telemetry.NewSessionMetrics(providers.MeterProvider)
	if err != nil {
		log.Error("metrics", "error", err)
		os.Exit(1)
	}
	mgr := service.NewManager(sessions.Repo, security.NewTokenCodec(key), cfg.TokenTTL(), nil, metrics, log)

	every := cfg.PurgeEvery()
	log.Info("worker: purging expired sessions", "store", sessions.Name, "interval", every)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		n, err := mgr.PurgeExpired(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Error("worker: purge failed", "error", err)
		case n > 0:
			log.Info("worker: purged expired sessions", "count", n)
		}
		select {
		case <-ctx.Done():
			log.Info("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}
