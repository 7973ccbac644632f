// Package redis keeps failure counters in Redis so every replica of the
// gateway shares one lockout state. Only store.Counters lives here; users and
// token records stay in the SQL store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

var _ store.Counters = (*Counters)(nil)

// Counters implements store.Counters on INCR and PEXPIRE.
type Counters struct {
	rdb goredis.UniversalClient
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient) *Counters {
	return &Counters{rdb: rdb}
}

// Open parses a redis:// URL and checks the server answers.
func Open(ctx context.Context, url string) (*Counters, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return New(rdb), nil
}

func (c *Counters) GetCounter(ctx context.Context, key string) (int, error) {
	n, err := c.rdb.Get(ctx, key).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return n, err
}

// IncrementCounter runs INCR and PEXPIRE in one MULTI so a counter can never
// be left without an expiry.
func (c *Counters) IncrementCounter(ctx context.Context, key string, ttl time.Duration) (int, error) {
	var incr *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (c *Counters) CounterTTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// -2 (missing) and -1 (no expiry) both come back negative.
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

func (c *Counters) DeleteCounter(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// DeleteExpiredCounters is a no-op; Redis expires keys on its own.
func (c *Counters) DeleteExpiredCounters(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (c *Counters) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Counters) Close() error {
	return c.rdb.Close()
}
