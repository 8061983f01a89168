package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultScanCount = 10_000

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
	client    *redis.Client
	scanCount int64
}

func NewRedisStore(client *redis.Client, scanCount int) *RedisStore {
	if scanCount <= 0 {
		scanCount = defaultScanCount
	}
	return &RedisStore{
		client:    client,
		scanCount: int64(scanCount),
	}
}

func (s *RedisStore) Members(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return members, nil
}

func (s *RedisStore) Scan(ctx context.Context, pattern string, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, pattern, s.scanCount).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) AddMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.client.SAdd(ctx, key, toArgs(members)...).Err()
}

func (s *RedisStore) RemoveMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return s.client.SRem(ctx, key, toArgs(members)...).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
