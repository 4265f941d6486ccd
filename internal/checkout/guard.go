package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard allows one in-flight submission per session.
type Guard interface {
	// Acquire reports false when a submission for sessionID is already running.
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[sessionID]; busy {
		return false, nil
	}
	g.inflight[sessionID] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inflight, sessionID)
	return nil
}

// RedisGuard shares the in-flight marker across API instances. The TTL
// frees sessions whose holder crashed mid-submit.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func guardKey(sessionID string) string {
	return "checkout:inflight:" + sessionID
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(sessionID), time.Now().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, guardKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
