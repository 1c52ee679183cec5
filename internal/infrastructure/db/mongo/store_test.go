package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// newSchemaStore returns a Store whose collection listing comes from names.
func newSchemaStore(names *[]string, calls *int, now *time.Time) *Store {
	s := NewStore(nil, nil)
	s.now = func() time.Time { return *now }
	s.listCollections = func(context.Context) ([]string, error) {
		*calls++
		return *names, nil
	}
	return s
}

func TestRequireCollection_DetectsDropAfterRecheck(t *testing.T) {
	ctx := context.Background()
	names := []string{"jobs", "clients"}
	calls := 0
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s := newSchemaStore(&names, &calls, &now)

	if err := s.requireCollection(ctx, domain.CollectionJobs); err != nil {
		t.Fatalf("expected jobs present, got %v", err)
	}
	if err := s.requireCollection(ctx, domain.CollectionClients); err != nil {
		t.Fatalf("expected clients present, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one listing while fresh, got %d", calls)
	}

	names = []string{"clients"}
	now = now.Add(30 * time.Second)
	if err := s.requireCollection(ctx, domain.CollectionJobs); err != nil {
		t.Fatalf("expected cached listing within the window, got %v", err)
	}

	now = now.Add(schemaRecheck)
	err := s.requireCollection(ctx, domain.CollectionJobs)
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch after the drop, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a fresh listing, got %d calls", calls)
	}
}

func TestRequireCollection_ListingFailureIsClassified(t *testing.T) {
	s := NewStore(nil, nil)
	s.listCollections = func(context.Context) ([]string, error) {
		return nil, context.DeadlineExceeded
	}
	err := s.requireCollection(context.Background(), domain.CollectionJobs)
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
