package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "receptionist:session:"

	// DefaultTTL expires idle sessions.
	DefaultTTL = 24 * time.Hour
)

// RedisStore manages session state in Redis. Every save refreshes the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a session store backed by Redis.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if rdb == nil {
		panic("session: redis client required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save persists or updates the session.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.ID == "" {
		return errors.New("session: id required")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(state.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// Get loads a session, returning ErrNotFound when absent or expired.
func (s *RedisStore) Get(ctx context.Context, id string) (*State, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &state, nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
