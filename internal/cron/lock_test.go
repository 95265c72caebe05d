package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mapStore struct {
	data map[string]string
}

func (m *mapStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *mapStore) Get(_ context.Context, key string) (string, error) {
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *mapStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestRedisLockReleasesOnlyOwnClaim(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	first, err := NewRedisLock(store, "sf:cron:test")
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "sf:cron:test")
	ctx := context.Background()

	if ok, _ := first.Acquire(ctx, "job", time.Minute); !ok {
		t.Fatalf("first acquire should win")
	}
	if ok, _ := second.Acquire(ctx, "job", time.Minute); ok {
		t.Fatalf("second acquire should lose")
	}
	if err := second.Release(ctx, "job"); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if _, ok := store.data["sf:cron:test:job"]; !ok {
		t.Fatalf("non-owner release must keep the claim")
	}
	if err := first.Release(ctx, "job"); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if _, ok := store.data["sf:cron:test:job"]; ok {
		t.Fatalf("owner release should delete the claim")
	}
}
