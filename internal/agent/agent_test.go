package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/service"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/cache/sqlite"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/db/memory"
	"github.com/tradeworks/contractor-hub/internal/pkg/config"
)

func testConfig() *config.AgentConfig {
	return &config.AgentConfig{
		AccountID:     "acct-1",
		StoreDriver:   "memory",
		CacheDriver:   "memory",
		SyncInterval:  20 * time.Millisecond,
		ProbeInterval: 20 * time.Millisecond,
		ProbeTimeout:  time.Second,
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.AccountID = ""
	_, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)

	cfg = testConfig()
	cfg.CacheDriver = "bolt"
	_, err = New(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "CACHE_DRIVER")
}

func TestNew_MemoryDriversOnline(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close(ctx)

	require.NoError(t, a.Start(ctx, false))
	require.Equal(t, service.StatusOnlineSynced, a.Controller().State().Status())

	job := &domain.Job{Name: "Kitchen remodel"}
	require.NoError(t, a.Controller().CreateJob(ctx, job))

	jobs := a.Controller().State().Snapshot().Jobs
	require.Len(t, jobs, 1)
	assert.Equal(t, "acct-1", jobs[0].AccountID)
}

func TestAgent_OfflineStartServesSqliteCache(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	store := memory.NewStore()

	cache, err := sqlite.Open(ctx, path, "acct-1", zerolog.Nop())
	require.NoError(t, err)
	first := NewWith(testConfig(), store, cache, zerolog.Nop())
	require.NoError(t, first.Start(ctx, false))
	require.NoError(t, first.Controller().CreateJob(ctx, &domain.Job{Name: "Deck"}))
	first.Close(ctx)
	require.NoError(t, cache.Close())

	store.SetReachable(false)
	cache, err = sqlite.Open(ctx, path, "acct-1", zerolog.Nop())
	require.NoError(t, err)
	defer cache.Close()

	second := NewWith(testConfig(), store, cache, zerolog.Nop())
	defer second.Close(ctx)
	require.NoError(t, second.Start(ctx, false))

	snap := second.Controller().State().Snapshot()
	assert.Equal(t, service.StatusOfflineCached, snap.Status)
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, "Deck", snap.Jobs[0].Name)

	err = second.Controller().CreateJob(ctx, &domain.Job{Name: "Fence"})
	require.ErrorIs(t, err, domain.ErrOffline)
}

func TestAgent_SharedSqliteFileIsScopedByAccount(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	store := memory.NewStore()

	cacheA, err := sqlite.Open(ctx, path, "acct-a", zerolog.Nop())
	require.NoError(t, err)
	defer cacheA.Close()
	cfgA := testConfig()
	cfgA.AccountID = "acct-a"
	a := NewWith(cfgA, store, cacheA, zerolog.Nop())
	defer a.Close(ctx)
	require.NoError(t, a.Start(ctx, false))
	require.NoError(t, a.Controller().CreateJob(ctx, &domain.Job{Name: "A's private job"}))

	store.SetReachable(false)
	cacheB, err := sqlite.Open(ctx, path, "acct-b", zerolog.Nop())
	require.NoError(t, err)
	defer cacheB.Close()
	cfgB := testConfig()
	cfgB.AccountID = "acct-b"
	b := NewWith(cfgB, store, cacheB, zerolog.Nop())
	defer b.Close(ctx)
	require.NoError(t, b.Start(ctx, false))

	snap := b.Controller().State().Snapshot()
	assert.Equal(t, service.StatusOfflineCached, snap.Status)
	assert.Empty(t, snap.Jobs)
}

func TestWatch_ReconnectsAndStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	store.SetReachable(false)
	a := NewWith(testConfig(), store, memory.NewCache(), zerolog.Nop())
	defer a.Close(context.Background())

	require.NoError(t, a.Start(context.Background(), false))
	require.False(t, a.Controller().Online())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx) }()

	store.SetReachable(true)
	require.Eventually(t, func() bool {
		return a.Controller().State().Status() == service.StatusOnlineSynced
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
