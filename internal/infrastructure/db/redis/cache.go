package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// Cache is a LocalCache holding each partition in one hash, field = record id.
// Hash fields are unordered; callers sort what they read.
type Cache struct {
	client redis.Cmdable
	prefix string
}

var _ ports.LocalCache = (*Cache)(nil)

// NewCache scopes every partition key under cache:<accountID>.
func NewCache(client redis.Cmdable, accountID string) *Cache {
	return &Cache{client: client, prefix: "cache:" + accountID + ":"}
}

func (c *Cache) key(coll domain.Collection) string {
	return c.prefix + string(coll)
}

func (c *Cache) GetAll(ctx context.Context, coll domain.Collection) ([]ports.CacheRecord, error) {
	fields, err := c.client.HGetAll(ctx, c.key(coll)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", coll, err)
	}
	out := make([]ports.CacheRecord, 0, len(fields))
	for id, data := range fields {
		out = append(out, ports.CacheRecord{ID: id, Data: []byte(data)})
	}
	return out, nil
}

func (c *Cache) Put(ctx context.Context, coll domain.Collection, rec ports.CacheRecord) error {
	if err := c.client.HSet(ctx, c.key(coll), rec.ID, rec.Data).Err(); err != nil {
		return fmt.Errorf("cache put %s/%s: %w", coll, rec.ID, err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context, coll domain.Collection) error {
	if err := c.client.Del(ctx, c.key(coll)).Err(); err != nil {
		return fmt.Errorf("cache clear %s: %w", coll, err)
	}
	return nil
}

// Replace deletes and rewrites the hash inside MULTI/EXEC.
func (c *Cache) Replace(ctx context.Context, coll domain.Collection, records []ports.CacheRecord) error {
	key := c.key(coll)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(records) == 0 {
			return nil
		}
		values := make([]any, 0, len(records)*2)
		for _, rec := range records {
			values = append(values, rec.ID, rec.Data)
		}
		pipe.HSet(ctx, key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache replace %s: %w", coll, err)
	}
	return nil
}
