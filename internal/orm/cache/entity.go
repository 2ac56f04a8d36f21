// Package cache provides a Redis-backed read-through layer for entity
// lookup services. Dereferencing the same foreign identifier across
// operations is common enough that the extra hop pays for itself.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/facet-orm/facet/internal/orm/opctx"
	"github.com/facet-orm/facet/internal/orm/store"
)

// DefaultTTL is the cache entry lifetime when none is configured
const DefaultTTL = 5 * time.Minute

// cachedEntity is the serialized cache representation of an entity
type cachedEntity struct {
	RowID  int64                  `json:"row_id"`
	Table  string                 `json:"table"`
	Values map[string]interface{} `json:"values"`
}

// EntityCache wraps an entity lookup service with a Redis read-through
// cache. It implements opctx.EntityService. Lookup failures of the
// cache itself degrade to the underlying service; a cache outage never
// fails an operation.
type EntityCache struct {
	next   opctx.EntityService
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// EntityCacheOption configures an EntityCache
type EntityCacheOption func(*EntityCache)

// WithTTL overrides the entry lifetime
func WithTTL(ttl time.Duration) EntityCacheOption {
	return func(c *EntityCache) { c.ttl = ttl }
}

// WithPrefix overrides the key prefix (default "facet:ent:")
func WithPrefix(prefix string) EntityCacheOption {
	return func(c *EntityCache) { c.prefix = prefix }
}

// NewEntityCache wraps a lookup service with a Redis cache
func NewEntityCache(next opctx.EntityService, client *redis.Client, opts ...EntityCacheOption) *EntityCache {
	c := &EntityCache{
		next:   next,
		client: client,
		prefix: "facet:ent:",
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read implements opctx.EntityService
func (c *EntityCache) Read(ctx context.Context, id interface{}) (opctx.Entity, error) {
	key := c.prefix + fmt.Sprint(id)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedEntity
		if unmarshalErr := json.Unmarshal(payload, &cached); unmarshalErr == nil {
			return store.NewEntity(cached.RowID, cached.Table, cached.Values), nil
		}
		// Corrupt entry: fall through to the service and overwrite.
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	entity, err := c.next.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, entity)
	return entity, nil
}

// put stores an entity under the key, best effort
func (c *EntityCache) put(ctx context.Context, key string, entity opctx.Entity) {
	se, ok := entity.(*store.Entity)
	if !ok {
		return
	}

	payload, err := json.Marshal(cachedEntity{
		RowID:  se.RowID(),
		Table:  se.Table(),
		Values: se.Values(),
	})
	if err != nil {
		return
	}

	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops the cache entry for an identifier
func (c *EntityCache) Invalidate(ctx context.Context, id interface{}) error {
	return c.client.Del(ctx, c.prefix+fmt.Sprint(id)).Err()
}
