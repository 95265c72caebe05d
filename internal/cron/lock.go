package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock claims a job slot for ttl. A claim that is not released marks the job as recently run.
type Lock interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock with SETNX keyed by job name.
type RedisLock struct {
	client redisStore
	prefix string

	mu     sync.Mutex
	owners map[string]string
}

func NewRedisLock(client redisStore, prefix string) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if prefix == "" {
		return nil, errors.New("lock prefix is required")
	}
	return &RedisLock{client: client, prefix: prefix, owners: map[string]string{}}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(job), owner, ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.mu.Lock()
		l.owners[job] = owner
		l.mu.Unlock()
	}
	return ok, nil
}

// Release frees the claim only while this instance still owns it.
func (l *RedisLock) Release(ctx context.Context, job string) error {
	l.mu.Lock()
	owner := l.owners[job]
	delete(l.owners, job)
	l.mu.Unlock()
	if owner == "" {
		return nil
	}

	key := l.key(job)
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

func (l *RedisLock) key(job string) string {
	return l.prefix + ":" + job
}
