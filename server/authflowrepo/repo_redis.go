package authflowrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-session-relay/internal/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "authflow:"

// RedisRepo implements Repo on Redis so that every replica behind a load
// balancer can finish a login started on another.
type RedisRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepo creates a RedisRepo. A non-positive ttl uses DefaultTTL.
func NewRedisRepo(client redis.UniversalClient, ttl time.Duration) *RedisRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRepo{client: client, ttl: ttl}
}

// Upsert stores an auth flow state with the repo TTL.
func (r *RedisRepo) Upsert(ctx context.Context, state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	value, err := json.Marshal(authState)
	if err != nil {
		return fmt.Errorf("encode auth flow state: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+state, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Take atomically reads and deletes an auth flow state.
func (r *RedisRepo) Take(ctx context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	value, err := r.client.GetDel(ctx, keyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis getdel: %w", err)
	}

	var authState AuthFlowState
	if err := json.Unmarshal(value, &authState); err != nil {
		return nil, fmt.Errorf("decode auth flow state: %w", err)
	}
	return &authState, nil
}

// Health checks the Redis connection.
func (r *RedisRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
