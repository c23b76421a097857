package repository

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventLedger remembers processed payment event IDs so replays can be skipped.
type EventLedger interface {
	// Claim returns false when the event was already claimed.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so the provider's retry is processed.
	Release(ctx context.Context, eventID string) error
}

type redisEventLedger struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisEventLedger stores claims as expiring keys.
func NewRedisEventLedger(client *redis.Client, ttl time.Duration) EventLedger {
	return &redisEventLedger{client: client, ttl: ttl, prefix: "payments:event:"}
}

func (l *redisEventLedger) Claim(ctx context.Context, eventID string) (bool, error) {
	return l.client.SetNX(ctx, l.prefix+eventID, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *redisEventLedger) Release(ctx context.Context, eventID string) error {
	return l.client.Del(ctx, l.prefix+eventID).Err()
}

type memoryEventLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	claimed map[string]time.Time
	now     func() time.Time
}

// NewMemoryEventLedger keeps claims in process memory.
func NewMemoryEventLedger(ttl time.Duration) EventLedger {
	return &memoryEventLedger{ttl: ttl, claimed: make(map[string]time.Time), now: time.Now}
}

func (l *memoryEventLedger) Claim(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, at := range l.claimed {
		if now.Sub(at) > l.ttl {
			delete(l.claimed, id)
		}
	}
	if _, ok := l.claimed[eventID]; ok {
		return false, nil
	}
	l.claimed[eventID] = now
	return true, nil
}

func (l *memoryEventLedger) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, eventID)
	return nil
}
