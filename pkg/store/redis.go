package store

import (
	"context"
	"errors"
	"slices"

	"github.com/redis/go-redis/v9"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/registry"
)

// Redis key layout.
const (
	redisKeyPrefix = "panegrid:layout:"
	redisIndexKey  = "panegrid:layouts"
)

// RedisStore keeps each layout as a Redis string holding the snapshot JSON.
// Layout names are indexed in a set so List does not need SCAN.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at addr and pings it, retrying with
// backoff.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "connect to redis at %s", addr)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(layout string) string {
	return redisKeyPrefix + layout
}

func (s *RedisStore) Load(ctx context.Context, layout string) (registry.Snapshot, error) {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, redisKey(layout)).Bytes()
	if errors.Is(err, redis.Nil) {
		return registry.Snapshot{}, nil
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "redis get %s", layout)
	}
	return decode(layout, data)
}

func (s *RedisStore) Save(ctx context.Context, layout string, snap registry.Snapshot) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey(layout), data, 0)
		pipe.SAdd(ctx, redisIndexKey, layout)
		return nil
	})
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "redis set %s", layout)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, layout string) error {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey(layout))
		pipe.SRem(ctx, redisIndexKey, layout)
		return nil
	})
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "redis delete %s", layout)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "redis list layouts")
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
