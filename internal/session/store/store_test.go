package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"session-token-service/internal/config"
	sessionrepo "session-token-service/internal/session/repository"
)

func TestOpen_PostgresRequiresDatabase(t *testing.T) {
	cfg := &config.Config{SessionStore: config.StorePostgres}
	if _, err := Open(context.Background(), cfg, nil, nil); !errors.Is(err, ErrMissingDatabase) {
		t.Errorf("err = %v, want ErrMissingDatabase", err)
	}
}

func TestOpen_Postgres(t *testing.T) {
	pg := &sql.DB{}
	s, err := Open(context.Background(), &config.Config{SessionStore: config.StorePostgres}, pg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Repo.(*sessionrepo.PostgresRepository); !ok {
		t.Errorf("Repo = %T, want *PostgresRepository", s.Repo)
	}
	if s.Name != config.StorePostgres || s.Pinger != pg {
		t.Errorf("store = %+v", s)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_UnknownStore(t *testing.T) {
	if _, err := Open(context.Background(), &config.Config{SessionStore: "memcached"}, nil, nil); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestStore_CloseNil(t *testing.T) {
	var s *Store
	if err := s.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis integration test")
	}
	ctx := context.Background()
	s, err := Open(ctx, &config.Config{SessionStore: config.StoreRedis, RedisAddr: addr}, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(ctx)
	if err := s.Pinger.PingContext(ctx); err != nil {
		t.Errorf("PingContext: %v", err)
	}
}

func TestOpen_Mongo(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set; skipping mongo integration test")
	}
	ctx := context.Background()
	s, err := Open(ctx, &config.Config{SessionStore: config.StoreMongo, MongoURI: uri, MongoDatabase: "session_token_test"}, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close(ctx)
	if err := s.Pinger.PingContext(ctx); err != nil {
		t.Errorf("PingContext: %v", err)
	}
}
