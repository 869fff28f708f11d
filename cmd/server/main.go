package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/health"

	"session-token-service/internal/audit"
	"session-token-service/internal/audit/producer"
	auditrepo "session-token-service/internal/audit/repository"
	"session-token-service/internal/config"
	"session-token-service/internal/db"
	healthcheck "session-token-service/internal/health"
	identityservice "session-token-service/internal/identity/service"
	"session-token-service/internal/security"
	"session-token-service/internal/server"
	"session-token-service/internal/server/interceptors"
	sessionhandler "session-token-service/internal/session/handler"
	"session-token-service/internal/session/service"
	"session-token-service/internal/session/store"
	telemetry "session-token-service/internal/telemetry/otel"
	userrepo "session-token-service/internal/user/repository"
)

const healthInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	// Fail before listening when the secret is unusable.
	key, err := security.DeriveSigningKey(cfg.TokenJWTSecret)
	if err != nil {
		log.Error("signing key", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName, cfg.OTLPInsecure, log)
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
		pg, err = db.OpenWithRetry(ctx, cfg.DatabaseURL, 30*time.Second)
		if err != nil {
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

	auditOpts := []audit.Option{
		audit.WithIPExtractor(interceptors.ClientIP),
		audit.WithSlog(log),
		audit.WithProducer(telemetry.NewAuditEmitter(providers.LoggerProvider)),
	}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuditKafkaTopic); kp != nil {
		auditOpts = append(auditOpts, audit.WithProducer(kp))
	}
	var auditStore auditrepo.Repository
	if pg != nil {
		auditStore = auditrepo.NewPostgresRepository(pg)
	}
	auditLog := audit.NewLogger(auditStore, auditOpts...)
	defer auditLog.Close()

	metrics, err := telemetry.NewSessionMetrics(providers.MeterProvider)
	if err != nil {
		log.Error("metrics", "error", err)
		os.Exit(1)
	}
	mgr := service.NewManager(sessions.Repo, security.NewTokenCodec(key), cfg.TokenTTL(), auditLog, metrics, log)

	// The user directory lives in Postgres; without it Login is unavailable but tokens still resolve.
	var authn sessionhandler.Authenticator
	if pg != nil {
		loader := identityservice.NewLoader(userrepo.NewPostgresRepository(pg), log)
		authn = service.NewAuthenticator(loader, mgr)
	} else {
		log.Warn("DATABASE_URL not set; SessionService/Login disabled")
	}
	sessionSrv := sessionhandler.NewServer(authn, mgr, cfg.LoginAPIKey, log)

	hs := health.NewServer()
	pingers := map[string]healthcheck.Pinger{sessions.Name: sessions.Pinger}
	if pg != nil {
		pingers["postgres"] = pg
	}
	go healthcheck.NewChecker(hs, pingers, log).Run(ctx, healthInterval)

	s := server.NewGRPCServer(server.Deps{Identity: mgr, Session: sessionSrv, Health: hs, Log: log})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	defer lis.Close()

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr, "session_store", sessions.Name, "token_ttl", cfg.TokenTTL())
		if err := s.Serve(lis); err != nil {
			log.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gRPC server...")
	hs.Shutdown()
	s.GracefulStop()
	log.Info("gRPC server stopped")
}
