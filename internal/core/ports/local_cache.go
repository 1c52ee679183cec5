package ports

import (
	"context"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// CacheRecord is one serialized entity in a cache partition.
type CacheRecord struct {
	ID   string
	Data []byte
}

// LocalCache is the offline mirror: one key-value partition per collection.
type LocalCache interface {
	// GetAll returns every record of the partition; an empty partition is not an error.
	GetAll(ctx context.Context, c domain.Collection) ([]CacheRecord, error)
	// Put upserts a single record by ID.
	Put(ctx context.Context, c domain.Collection, rec CacheRecord) error
	// Clear empties the partition.
	Clear(ctx context.Context, c domain.Collection) error
	// Replace clears the partition and inserts records as one atomic step.
	Replace(ctx context.Context, c domain.Collection, records []CacheRecord) error
}
