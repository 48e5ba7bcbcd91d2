// Package rediscache fronts the hottest secondary-index lookups — the ones
// the ceremony engine hits on every continuation and every token request —
// with a cache-aside layer (spec §4.5 persistence contract). It decorates a
// store.Store rather than replacing it: postgres stays the source of
// truth, Redis only shortcuts the read path and is invalidated on write.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// ttl bounds how long a cached lookup may be served stale. Interactions and
// issuings are single-writer, short-lived (a ceremony's whole life is
// minutes), so a short TTL plus active invalidation on write is enough.
const ttl = 2 * time.Minute

// Decorator wraps a store.Store, interposing cached repos for the two
// entities the ceremony engine re-reads by secondary index on the hot path:
// Interactions (ByContinueID, ByReference) and Issuings (ByTxCode, ByToken).
type Decorator struct {
	store.Store
	interactions *cachedInteractions
	issuings     *cachedIssuings
}

// New wraps backing behind a Redis cache-aside layer. addr is
// configuration.Cfg.Redis.Addr; callers should only construct a Decorator
// when addr is non-empty.
func New(backing store.Store, addr string, log *logger.Log) *Decorator {
	rc := redis.NewClient(&redis.Options{Addr: addr})
	return &Decorator{
		Store:        backing,
		interactions: &cachedInteractions{Interactions: backing.Interactions(), rc: rc, log: log},
		issuings:     &cachedIssuings{Issuings: backing.Issuings(), rc: rc, log: log},
	}
}

func (d *Decorator) Interactions() store.Interactions { return d.interactions }
func (d *Decorator) Issuings() store.Issuings         { return d.issuings }

func (d *Decorator) Close(ctx context.Context) error {
	_ = d.interactions.rc.Close()
	return d.Store.Close(ctx)
}

// get unmarshals a cached value into dst and reports whether it did. A cache
// miss, a read error and a corrupt payload all report false, so callers fall
// through to the backing store on any cache trouble.
func get[T any](ctx context.Context, rc *redis.Client, log *logger.Log, key string, dst *T) bool {
	raw, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.V(1).Info("cache read failed, falling through", "key", key, "err", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.V(1).Info("cache payload corrupt, falling through", "key", key, "err", err.Error())
		return false
	}
	return true
}

func set(ctx context.Context, rc *redis.Client, log *logger.Log, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := rc.Set(ctx, key, raw, ttl).Err(); err != nil {
		log.V(1).Info("cache write failed", "key", key, "err", err.Error())
	}
}

func del(ctx context.Context, rc *redis.Client, log *logger.Log, keys ...string) {
	if err := rc.Del(ctx, keys...).Err(); err != nil && err != redis.Nil {
		log.V(1).Info("cache invalidation failed", "keys", keys, "err", err.Error())
	}
}
