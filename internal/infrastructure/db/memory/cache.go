package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// Cache is a LocalCache kept in process memory. Records keep insertion order.
type Cache struct {
	mu    sync.RWMutex
	parts map[domain.Collection][]ports.CacheRecord
}

var _ ports.LocalCache = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{parts: map[domain.Collection][]ports.CacheRecord{}}
}

func (c *Cache) GetAll(_ context.Context, coll domain.Collection) ([]ports.CacheRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.parts[coll]), nil
}

func (c *Cache) Put(_ context.Context, coll domain.Collection, rec ports.CacheRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec.Data = slices.Clone(rec.Data)
	part := c.parts[coll]
	for i := range part {
		if part[i].ID == rec.ID {
			part[i] = rec
			return nil
		}
	}
	c.parts[coll] = append(part, rec)
	return nil
}

func (c *Cache) Clear(_ context.Context, coll domain.Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.parts, coll)
	return nil
}

func (c *Cache) Replace(_ context.Context, coll domain.Collection, records []ports.CacheRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts[coll] = cloneRecords(records)
	return nil
}

func cloneRecords(in []ports.CacheRecord) []ports.CacheRecord {
	out := make([]ports.CacheRecord, len(in))
	for i, r := range in {
		out[i] = ports.CacheRecord{ID: r.ID, Data: slices.Clone(r.Data)}
	}
	return out
}
