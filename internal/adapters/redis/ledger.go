// Package redis implements the notification ledger on Redis.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/rabotim/internal/ports/secondary"
)

// KeyPrefix namespaces ledger keys.
const KeyPrefix = "rabotim:notified:"

// Ledger implements secondary.NotificationLedger with SET NX, so the
// first writer of a key wins across every API instance.
type Ledger struct {
	client *goredis.Client
	prefix string
}

// NewLedger wraps an existing client.
func NewLedger(client *goredis.Client) *Ledger {
	return &Ledger{client: client, prefix: KeyPrefix}
}

// Dial parses a redis:// URL, connects and pings.
func Dial(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// MarkOnce records key and reports true if this call recorded it first.
func (l *Ledger) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark notification %s: %w", key, err)
	}
	return ok, nil
}

// MemoryLedger is a process-local NotificationLedger for single-instance
// deployments and tests.
type MemoryLedger struct {
	mu   sync.Mutex
	now  func() time.Time
	seen map[string]time.Time
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{now: time.Now, seen: make(map[string]time.Time)}
}

// MarkOnce records key and reports true if it was not recorded or its ttl
// has passed. A non-positive ttl never expires.
func (l *MemoryLedger) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.seen[key]; ok && (expires.IsZero() || now.Before(expires)) {
		return false, nil
	}

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.seen[key] = expires
	return true, nil
}

var (
	_ secondary.NotificationLedger = (*Ledger)(nil)
	_ secondary.NotificationLedger = (*MemoryLedger)(nil)
)
