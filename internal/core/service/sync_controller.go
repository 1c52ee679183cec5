package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tradeworks/contractor-hub/internal/api/metrics"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

const defaultProbeTimeout = 5 * time.Second

// SyncController mirrors the account's remote collections into the local
// cache and the published StateStore. It is the only writer of both.
type SyncController struct {
	accountID string
	remote    ports.RemoteStore
	cache     ports.LocalCache
	conn      *Connectivity
	state     *StateStore
	validate  *validator.Validate
	log       zerolog.Logger

	probeTimeout time.Duration
	now          func() time.Time
	newID        func() string

	refreshMu   sync.Mutex
	halted      atomic.Bool
	baseCtx     context.Context
	unsubscribe func()
	partitions  []syncPartition
}

// SyncOption customises a SyncController.
type SyncOption func(*SyncController)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SyncOption {
	return func(c *SyncController) { c.now = now }
}

// WithIDGenerator overrides how new entity ids are produced.
func WithIDGenerator(newID func() string) SyncOption {
	return func(c *SyncController) { c.newID = newID }
}

// WithProbeTimeout bounds the startup connectivity probe.
func WithProbeTimeout(d time.Duration) SyncOption {
	return func(c *SyncController) { c.probeTimeout = d }
}

func NewSyncController(
	accountID string,
	remote ports.RemoteStore,
	cache ports.LocalCache,
	conn *Connectivity,
	log zerolog.Logger,
	opts ...SyncOption,
) *SyncController {
	c := &SyncController{
		accountID:    accountID,
		remote:       remote,
		cache:        cache,
		conn:         conn,
		state:        NewStateStore(),
		validate:     validator.New(),
		log:          log.With().Str("account_id", accountID).Logger(),
		probeTimeout: defaultProbeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
		baseCtx:      context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.partitions = c.buildPartitions()
	return c
}

// State exposes the published view for reading.
func (c *SyncController) State() *StateStore { return c.state }

// Online returns the centralized connectivity flag.
func (c *SyncController) Online() bool { return c.conn.Online() }

// Start probes the remote store, subscribes to connectivity transitions and
// runs the first refresh, which reads the cache when the probe failed.
func (c *SyncController) Start(ctx context.Context) error {
	c.baseCtx = context.WithoutCancel(ctx)
	online := c.conn.Probe(ctx, c.remote, c.probeTimeout)
	c.state.update(func(s *Snapshot) {
		s.Online = online
		if !online {
			s.Status = StatusOfflineCached
		}
	})
	c.unsubscribe = c.conn.Subscribe(c.onConnectivity)
	return c.Refresh(ctx)
}

// Stop detaches the controller from connectivity notifications.
func (c *SyncController) Stop() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *SyncController) onConnectivity(online bool) {
	if !online {
		c.state.update(func(s *Snapshot) {
			s.Online = false
			s.Status = StatusOfflineCached
		})
		return
	}
	c.state.update(func(s *Snapshot) { s.Online = true })
	if err := c.Refresh(c.baseCtx); err != nil {
		c.log.Warn().Err(err).Msg("refresh after reconnect failed")
	}
}

// Refresh runs a full refresh. Online, every collection is fetched from the
// remote store, replaces its cache partition and is published; a failing
// collection keeps its previous published value. A collection whose cache
// write fails is still published and the failure is returned. Offline, every cache
// partition is published unchanged and the remote store is not contacted.
// Concurrent calls are serialized.
func (c *SyncController) Refresh(ctx context.Context) error {
	if err := c.guard(); err != nil {
		return err
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if !c.conn.Online() {
		c.loadFromCache(ctx)
		return nil
	}

	start := time.Now()
	c.state.update(func(s *Snapshot) {
		s.Online = true
		s.Status = StatusSyncing
	})

	errs := make([]error, len(c.partitions))
	var g errgroup.Group
	for i, p := range c.partitions {
		g.Go(func() error {
			if err := p.refresh(ctx, c); err != nil {
				metrics.CollectionRefreshTotal.WithLabelValues(string(p.collection()), "error").Inc()
				errs[i] = fmt.Errorf("%s: %w", p.collection(), err)
				return nil
			}
			metrics.CollectionRefreshTotal.WithLabelValues(string(p.collection()), "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	metrics.RefreshDuration.WithLabelValues("remote").Observe(time.Since(start).Seconds())

	err := errors.Join(errs...)
	if errors.Is(err, domain.ErrSchemaMismatch) {
		c.halt(err)
		return fmt.Errorf("refresh: %w", err)
	}

	online := c.conn.Online()
	c.state.update(func(s *Snapshot) {
		s.Online = online
		s.Status = StatusOnlineSynced
		if !online {
			s.Status = StatusOfflineCached
		}
		if err != nil {
			s.LastError = err.Error()
			return
		}
		s.LastError = ""
		s.LastSyncedAt = c.now()
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("refresh completed with errors")
		return fmt.Errorf("refresh: %w", err)
	}
	c.log.Debug().Dur("took", time.Since(start)).Msg("refresh completed")
	return nil
}

func (c *SyncController) loadFromCache(ctx context.Context) {
	start := time.Now()
	for _, p := range c.partitions {
		p.load(ctx, c)
		metrics.CollectionRefreshTotal.WithLabelValues(string(p.collection()), "cache").Inc()
	}
	c.state.update(func(s *Snapshot) {
		s.Online = false
		s.Status = StatusOfflineCached
	})
	metrics.RefreshDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
}

// halt stops all further data operations for this process.
func (c *SyncController) halt(cause error) {
	if c.halted.Swap(true) {
		return
	}
	c.log.Error().Err(cause).Msg("remote schema mismatch, halting session")
	c.state.update(func(s *Snapshot) {
		s.Halted = true
		s.FatalReason = "remote schema mismatch: run the schema setup and restart (" + cause.Error() + ")"
		s.LastError = cause.Error()
	})
}

func (c *SyncController) guard() error {
	if c.halted.Load() {
		return domain.ErrSessionHalted
	}
	return nil
}

// write gates op on the session and connectivity, issues fn once and then
// refreshes. A refresh failure after a successful write is only logged unless
// it halted the session.
func (c *SyncController) write(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := c.guard(); err != nil {
		return err
	}
	if !c.conn.Online() {
		metrics.MutationsTotal.WithLabelValues(op, "offline").Inc()
		return fmt.Errorf("%s: %w", op, domain.ErrOffline)
	}
	if err := fn(ctx); err != nil {
		metrics.MutationsTotal.WithLabelValues(op, "error").Inc()
		c.log.Error().Err(err).Str("op", op).Msg("write failed")
		if errors.Is(err, domain.ErrSchemaMismatch) {
			c.halt(err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.MutationsTotal.WithLabelValues(op, "ok").Inc()

	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrSchemaMismatch) {
			return fmt.Errorf("%s: %w", op, err)
		}
		c.log.Warn().Err(err).Str("op", op).Msg("refresh after write failed")
	}
	return nil
}

func (c *SyncController) validateEntity(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// CheckLimit reports whether the account may create one more record of
// resource. Documents are limited per job: use CheckDocumentLimit.
func (c *SyncController) CheckLimit(resource domain.Resource) bool {
	snap := c.state.Snapshot()
	var count int
	switch resource {
	case domain.ResourceJobs:
		count = len(snap.Jobs)
	case domain.ResourceClients:
		count = len(snap.Clients)
	}
	return domain.CheckLimit(snap.Profile.EffectiveTier(), resource, count)
}

// CheckDocumentLimit reports whether one more document may be added to job.
func (c *SyncController) CheckDocumentLimit(jobID string) bool {
	snap := c.state.Snapshot()
	count := 0
	for _, d := range snap.Documents {
		if d.JobID == jobID {
			count++
		}
	}
	return domain.CheckLimit(snap.Profile.EffectiveTier(), domain.ResourceDocuments, count)
}

// ── Partitions ────────────────────────────────────────────────────────────────

// syncPartition is one mirrored collection.
type syncPartition interface {
	collection() domain.Collection
	refresh(ctx context.Context, c *SyncController) error
	load(ctx context.Context, c *SyncController)
}

type partition[T any] struct {
	coll    domain.Collection
	fetch   func(ctx context.Context, accountID string) ([]T, error)
	id      func(T) string
	order   func(a, b T) int
	publish func(s *Snapshot, items []T)
}

func (p *partition[T]) collection() domain.Collection { return p.coll }

func (p *partition[T]) refresh(ctx context.Context, c *SyncController) error {
	items, err := p.fetch(ctx, c.accountID)
	if err != nil {
		return err
	}

	records := make([]ports.CacheRecord, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode %s: %w", p.id(item), err)
		}
		records = append(records, ports.CacheRecord{ID: p.id(item), Data: data})
	}
	// The fetched items are published even when the cache write fails; the
	// failure is still reported so the stale partition is visible.
	cacheErr := c.cache.Replace(ctx, p.coll, records)
	c.state.update(func(s *Snapshot) { p.publish(s, items) })
	if cacheErr != nil {
		c.log.Warn().Err(cacheErr).Str("collection", string(p.coll)).Msg("cache replace failed")
		return fmt.Errorf("cache replace: %w", cacheErr)
	}
	return nil
}

// load publishes the cache partition. Unreadable partitions and records are
// logged and published as empty or skipped.
func (p *partition[T]) load(ctx context.Context, c *SyncController) {
	records, err := c.cache.GetAll(ctx, p.coll)
	if err != nil {
		c.log.Warn().Err(err).Str("collection", string(p.coll)).Msg("cache read failed")
		records = nil
	}

	items := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := json.Unmarshal(rec.Data, &item); err != nil {
			c.log.Warn().Err(err).Str("collection", string(p.coll)).Str("id", rec.ID).Msg("skipping corrupt cache record")
			continue
		}
		items = append(items, item)
	}
	if p.order != nil {
		slices.SortFunc(items, p.order)
	}
	c.state.update(func(s *Snapshot) { p.publish(s, items) })
}

// newestFirst and byName mirror the remote ordering, ties broken by id.
func newestFirst(a, b time.Time, idA, idB string) int {
	return cmp.Or(b.Compare(a), cmp.Compare(idA, idB))
}

func byName(a, b, idA, idB string) int {
	return cmp.Or(cmp.Compare(a, b), cmp.Compare(idA, idB))
}

func (c *SyncController) buildPartitions() []syncPartition {
	return []syncPartition{
		&partition[domain.Profile]{
			coll: domain.CollectionProfiles,
			fetch: func(ctx context.Context, accountID string) ([]domain.Profile, error) {
				p, err := c.remote.Profiles().Get(ctx, accountID)
				if errors.Is(err, domain.ErrNotFound) {
					return nil, nil
				}
				if err != nil {
					return nil, err
				}
				return []domain.Profile{*p}, nil
			},
			id: func(p domain.Profile) string { return p.ID },
			publish: func(s *Snapshot, items []domain.Profile) {
				s.Profile = nil
				if len(items) > 0 {
					s.Profile = &items[0]
				}
			},
		},
		&partition[domain.Job]{
			coll:    domain.CollectionJobs,
			fetch:   c.remote.Jobs().List,
			id:      func(j domain.Job) string { return j.ID },
			order:   func(a, b domain.Job) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
			publish: func(s *Snapshot, items []domain.Job) { s.Jobs = items },
		},
		&partition[domain.Document]{
			coll:    domain.CollectionDocuments,
			fetch:   c.remote.Documents().List,
			id:      func(d domain.Document) string { return d.ID },
			order:   func(a, b domain.Document) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
			publish: func(s *Snapshot, items []domain.Document) { s.Documents = items },
		},
		&partition[domain.Client]{
			coll:    domain.CollectionClients,
			fetch:   c.remote.Clients().List,
			id:      func(cl domain.Client) string { return cl.ID },
			order:   func(a, b domain.Client) int { return byName(a.Name, b.Name, a.ID, b.ID) },
			publish: func(s *Snapshot, items []domain.Client) { s.Clients = items },
		},
		&partition[domain.InventoryItem]{
			coll:    domain.CollectionInventory,
			fetch:   c.remote.Inventory().List,
			id:      func(i domain.InventoryItem) string { return i.ID },
			order:   func(a, b domain.InventoryItem) int { return byName(a.Name, b.Name, a.ID, b.ID) },
			publish: func(s *Snapshot, items []domain.InventoryItem) { s.Inventory = items },
		},
		&partition[domain.InventoryHistoryEntry]{
			coll:  domain.CollectionInventoryHistory,
			fetch: c.remote.InventoryHistory().List,
			id:    func(e domain.InventoryHistoryEntry) string { return e.ID },
			order: func(a, b domain.InventoryHistoryEntry) int {
				return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
			},
			publish: func(s *Snapshot, items []domain.InventoryHistoryEntry) { s.InventoryHistory = items },
		},
		&partition[domain.SavedItem]{
			coll:    domain.CollectionSavedItems,
			fetch:   c.remote.SavedItems().List,
			id:      func(si domain.SavedItem) string { return si.ID },
			order:   func(a, b domain.SavedItem) int { return byName(a.Name, b.Name, a.ID, b.ID) },
			publish: func(s *Snapshot, items []domain.SavedItem) { s.SavedItems = items },
		},
	}
}
