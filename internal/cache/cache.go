// Package cache provides a small two-tier byte cache used for hot, rarely
// changing read paths (the category list). Tier one is an in-process
// bigcache shard set; tier two is an optional Redis instance shared between
// replicas. Concurrent misses for the same key are collapsed with
// singleflight so the loader runs at most once per key at a time.
//
// Values are opaque bytes; callers own serialization. The package does not
// log: Redis failures degrade to L1 + loader and are reported through
// Stats.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a full miss.
type Loader func(ctx context.Context) ([]byte, error)

// Options configures a Tiered cache.
type Options struct {
	// Prefix is prepended to every Redis key.
	Prefix string
	// TTL bounds entry lifetime in both tiers. Defaults to one minute.
	TTL time.Duration
	// L1MaxMB caps the in-process tier; <= 0 means DefaultL1MaxMB.
	L1MaxMB int
	// Redis enables the shared tier when non-nil.
	Redis *redis.Client
}

// Stats counts where reads were served from.
type Stats struct {
	L1Hits   uint64
	L2Hits   uint64
	Loads    uint64
	L2Errors uint64
}

// Tiered is safe for concurrent use.
type Tiered struct {
	l1     *bigcache.BigCache
	l2     *redis.Client
	prefix string
	ttl    time.Duration
	sf     singleflight.Group

	l1Hits, l2Hits, loads, l2Errors atomic.Uint64
}

// DefaultL1MaxMB is the in-process cap used when Options.L1MaxMB is unset.
const DefaultL1MaxMB = 16

// l1Window is the expected number of live keys. bigcache preallocates
// shards from it, so it must stay near the real key count.
const l1Window = 1024

// New builds the cache. ctx controls the lifetime of bigcache's janitor
// goroutine.
func New(ctx context.Context, o Options) (*Tiered, error) {
	ttl := o.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.CleanWindow = ttl
	cfg.MaxEntrySize = 64 * 1024
	cfg.MaxEntriesInWindow = l1Window
	cfg.HardMaxCacheSize = o.L1MaxMB
	if cfg.HardMaxCacheSize <= 0 {
		cfg.HardMaxCacheSize = DefaultL1MaxMB
	}
	cfg.Verbose = false

	l1, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Tiered{l1: l1, l2: o.Redis, prefix: o.Prefix, ttl: ttl}, nil
}

// Fetch returns the cached value for key, consulting L1, then L2, then load.
// A loaded value is written back to both tiers. Loader errors are returned
// as-is and nothing is cached.
func (t *Tiered) Fetch(ctx context.Context, key string, load Loader) ([]byte, error) {
	if b, err := t.l1.Get(key); err == nil {
		t.l1Hits.Add(1)
		return b, nil
	}
	if b, ok := t.getL2(ctx, key); ok {
		t.l2Hits.Add(1)
		_ = t.l1.Set(key, b)
		return b, nil
	}

	v, err, _ := t.sf.Do(key, func() (any, error) {
		b, err := load(ctx)
		if err != nil {
			return nil, err
		}
		t.loads.Add(1)
		_ = t.l1.Set(key, b)
		t.setL2(ctx, key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops keys from both tiers.
func (t *Tiered) Invalidate(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := t.l1.Delete(k); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			errs = append(errs, err)
		}
	}
	if t.l2 != nil && len(keys) > 0 {
		full := make([]string, len(keys))
		for i, k := range keys {
			full[i] = t.prefix + k
		}
		if err := t.l2.Del(ctx, full...).Err(); err != nil {
			t.l2Errors.Add(1)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the hit counters.
func (t *Tiered) Stats() Stats {
	return Stats{
		L1Hits:   t.l1Hits.Load(),
		L2Hits:   t.l2Hits.Load(),
		Loads:    t.loads.Load(),
		L2Errors: t.l2Errors.Load(),
	}
}

// Close releases the in-process tier. The Redis client is owned by the caller.
func (t *Tiered) Close() error {
	return t.l1.Close()
}

func (t *Tiered) getL2(ctx context.Context, key string) ([]byte, bool) {
	if t.l2 == nil {
		return nil, false
	}
	b, err := t.l2.Get(ctx, t.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.l2Errors.Add(1)
		}
		return nil, false
	}
	return b, true
}

func (t *Tiered) setL2(ctx context.Context, key string, b []byte) {
	if t.l2 == nil {
		return
	}
	if err := t.l2.Set(ctx, t.prefix+key, b, t.ttl).Err(); err != nil {
		t.l2Errors.Add(1)
	}
}
