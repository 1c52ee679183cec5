package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), ":memory:", "acct-1", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func ids(recs []ports.CacheRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestCache_EmptyPartition(t *testing.T) {
	c := openCache(t)

	recs, err := c.GetAll(context.Background(), domain.CollectionJobs)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCache_PutUpsertsAndKeepsOrder(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, domain.CollectionJobs, ports.CacheRecord{ID: "b", Data: []byte(`{"v":1}`)}))
	require.NoError(t, c.Put(ctx, domain.CollectionJobs, ports.CacheRecord{ID: "a", Data: []byte(`{"v":2}`)}))
	require.NoError(t, c.Put(ctx, domain.CollectionJobs, ports.CacheRecord{ID: "b", Data: []byte(`{"v":3}`)}))

	recs, err := c.GetAll(ctx, domain.CollectionJobs)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(recs))
	assert.JSONEq(t, `{"v":3}`, string(recs[0].Data))
}

func TestCache_ReplaceIsWholesale(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, domain.CollectionClients, ports.CacheRecord{ID: "stale", Data: []byte(`{}`)}))
	require.NoError(t, c.Put(ctx, domain.CollectionJobs, ports.CacheRecord{ID: "other", Data: []byte(`{}`)}))

	err := c.Replace(ctx, domain.CollectionClients, []ports.CacheRecord{
		{ID: "c2", Data: []byte(`{"name":"Ortiz"}`)},
		{ID: "c1", Data: []byte(`{"name":"Baker"}`)},
	})
	require.NoError(t, err)

	recs, err := c.GetAll(ctx, domain.CollectionClients)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, ids(recs))

	others, err := c.GetAll(ctx, domain.CollectionJobs)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ids(others), "other partitions untouched")
}

func TestCache_ReplaceRollsBackOnDuplicateID(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, domain.CollectionClients, ports.CacheRecord{ID: "keep", Data: []byte(`{}`)}))

	err := c.Replace(ctx, domain.CollectionClients, []ports.CacheRecord{
		{ID: "dup", Data: []byte(`{}`)},
		{ID: "dup", Data: []byte(`{}`)},
	})
	require.Error(t, err)

	recs, err := c.GetAll(ctx, domain.CollectionClients)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, ids(recs))
}

func TestCache_Clear(t *testing.T) {
	c := openCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, domain.CollectionInventory, ports.CacheRecord{ID: "i1", Data: []byte(`{}`)}))
	require.NoError(t, c.Clear(ctx, domain.CollectionInventory))

	recs, err := c.GetAll(ctx, domain.CollectionInventory)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpen_MigrationError(t *testing.T) {
	orig := gooseUpContext
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	_, err := Open(context.Background(), ":memory:", "acct-1", zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate cache")
}

func TestOpen_RequiresAccount(t *testing.T) {
	_, err := Open(context.Background(), ":memory:", "", zerolog.Nop())
	require.Error(t, err)
}

func TestCache_AccountsSharingAFileAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")

	a, err := Open(ctx, path, "acct-a", zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Replace(ctx, domain.CollectionJobs, []ports.CacheRecord{
		{ID: "j1", Data: []byte(`{"name":"A's job"}`)},
	}))
	require.NoError(t, a.Put(ctx, domain.CollectionClients, ports.CacheRecord{ID: "c1", Data: []byte(`{}`)}))

	b, err := Open(ctx, path, "acct-b", zerolog.Nop())
	require.NoError(t, err)
	defer b.Close()

	recs, err := b.GetAll(ctx, domain.CollectionJobs)
	require.NoError(t, err)
	assert.Empty(t, recs, "account b must not see account a's jobs")

	// The same id in another account is a separate row.
	require.NoError(t, b.Replace(ctx, domain.CollectionJobs, []ports.CacheRecord{
		{ID: "j1", Data: []byte(`{"name":"B's job"}`)},
	}))
	require.NoError(t, b.Clear(ctx, domain.CollectionClients))

	recs, err = a.GetAll(ctx, domain.CollectionJobs)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{"name":"A's job"}`, string(recs[0].Data))

	clients, err := a.GetAll(ctx, domain.CollectionClients)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids(clients))
}

func TestGooseLogger_WritesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := gooseLogger{log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	l.Printf("goose: no migrations to run. current version: %d\n", 2)

	assert.Contains(t, buf.String(), `"level":"debug"`)
	assert.Contains(t, buf.String(), "current version: 2")
	assert.NotContains(t, buf.String(), `\n"`)
}
