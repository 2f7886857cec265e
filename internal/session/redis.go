package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each session in one Redis hash whose TTL slides on
// every write.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStorage) Get(ctx context.Context, sid, key string) (string, error) {
	value, err := r.client.HGet(ctx, sessionKey(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", unavailable("redis hget", err)
	}
	return value, nil
}

func (r *RedisStorage) Set(ctx context.Context, sid, key, value string) error {
	hash := sessionKey(sid)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, value)
		pipe.Expire(ctx, hash, r.ttl)
		return nil
	})
	if err != nil {
		return unavailable("redis hset", err)
	}
	return nil
}

func (r *RedisStorage) SetIfAbsent(ctx context.Context, sid, key, value string) (string, error) {
	hash := sessionKey(sid)
	var get *redis.StringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, hash, key, value)
		pipe.Expire(ctx, hash, r.ttl)
		get = pipe.HGet(ctx, hash, key)
		return nil
	})
	if err != nil {
		return "", unavailable("redis hsetnx", err)
	}
	return get.Val(), nil
}

func (r *RedisStorage) Delete(ctx context.Context, sid, key string) error {
	if err := r.client.HDel(ctx, sessionKey(sid), key).Err(); err != nil {
		return unavailable("redis hdel", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return unavailable("redis del", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func sessionKey(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}
