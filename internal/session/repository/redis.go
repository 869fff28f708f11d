package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"session-token-service/internal/session/domain"
)

const redisKeyPrefix = "session:"

// redisSession is the JSON value stored under session:<id>.
type redisSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Payload   string    `json:"payload"`
}

// RedisRepository persists sessions as JSON values under session:<id>.
type RedisRepository struct {
	client redis.UniversalClient
	clock  Clock
}

// NewRedisRepository returns a session repository storing JSON values with a key TTL equal to
// the time left until ExpiresAt.
func NewRedisRepository(client redis.UniversalClient, clock Clock) *RedisRepository {
	return &RedisRepository{client: client, clock: clock}
}

func (r *RedisRepository) key(id string) string {
	return redisKeyPrefix + id
}

// GetByID returns the unexpired session for id, or nil if not found or expired.
func (r *RedisRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var v redisSession
	if err := json.Unmarshal(val, &v); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	s := &domain.Session{
		ID:        v.ID,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
		ExpiresAt: v.ExpiresAt,
		Payload:   v.Payload,
	}
	if s.Expired(r.clock.now()) {
		return nil, nil
	}
	return s, nil
}

// Save stores a new session. It fails if ExpiresAt is not in the future, and with
// ErrSessionExists if the key is already taken.
func (r *RedisRepository) Save(ctx context.Context, s *domain.Session) error {
	ttl := s.ExpiresAt.Sub(r.clock.now())
	if ttl <= 0 {
		return errors.New("session: expires_at must be in the future")
	}
	data, err := marshalRedisSession(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Update overwrites an existing session and resets its TTL, reporting whether the key was there.
// A session whose new expiry has already passed is deleted instead.
func (r *RedisRepository) Update(ctx context.Context, s *domain.Session) (bool, error) {
	ttl := s.ExpiresAt.Sub(r.clock.now())
	if ttl <= 0 {
		n, err := r.client.Del(ctx, r.key(s.ID)).Result()
		return n > 0, err
	}
	data, err := marshalRedisSession(s)
	if err != nil {
		return false, err
	}
	return r.client.SetXX(ctx, r.key(s.ID), data, ttl).Result()
}

// Delete removes the session key.
func (r *RedisRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// DeleteExpired is a no-op for Redis: keys expire through their TTL.
func (r *RedisRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func marshalRedisSession(s *domain.Session) ([]byte, error) {
	data, err := json.Marshal(redisSession{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		Payload:   s.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("session: failed to marshal: %w", err)
	}
	return data, nil
}
