// Package store opens the session repository selected by SESSION_STORE.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"session-token-service/internal/config"
	"session-token-service/internal/health"
	sessionrepo "session-token-service/internal/session/repository"
)

const connectTimeout = 10 * time.Second

// ErrMissingDatabase is returned when the postgres store is selected without a database handle.
var ErrMissingDatabase = errors.New("store: postgres session store requires DATABASE_URL")

// Store is an opened session repository with its readiness probe and cleanup.
type Store struct {
	Repo sessionrepo.Repository
	// Name is the backend name used for health reporting.
	Name   string
	Pinger health.Pinger
	closer func(context.Context) error
}

// Close releases the backend client. The postgres handle is owned by the caller and is not closed.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// Open connects to the configured backend and returns its repository.
// pg is the shared Postgres handle; it is required only for the postgres backend.
func Open(ctx context.Context, cfg *config.Config, pg *sql.DB, clock sessionrepo.Clock) (*Store, error) {
	switch cfg.SessionStore {
	case config.StoreMongo:
		return openMongo(ctx, cfg, clock)
	case config.StoreRedis:
		return openRedis(ctx, cfg, clock)
	case config.StorePostgres, "":
		if pg == nil {
			return nil, ErrMissingDatabase
		}
		return &Store{
			Repo:   sessionrepo.NewPostgresRepository(pg, clock),
			Name:   config.StorePostgres,
			Pinger: pg,
		}, nil
	default:
		return nil, fmt.Errorf("store: unknown session store %q", cfg.SessionStore)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, clock sessionrepo.Clock) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("store: mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: mongo ping: %w", err)
	}
	repo := sessionrepo.NewMongoRepository(client.Database(cfg.MongoDatabase), clock)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: mongo indexes: %w", err)
	}
	return &Store{
		Repo: repo,
		Name: config.StoreMongo,
		Pinger: health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}),
		closer: client.Disconnect,
	}, nil
}

func openRedis(ctx context.Context, cfg *config.Config, clock sessionrepo.Clock) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	return &Store{
		Repo: sessionrepo.NewRedisRepository(client, clock),
		Name: config.StoreRedis,
		Pinger: health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}),
		closer: func(context.Context) error { return client.Close() },
	}, nil
}
