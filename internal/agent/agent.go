// Package agent assembles the offline-aware sync controller from
// configuration and runs its background loops.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
	"github.com/tradeworks/contractor-hub/internal/core/service"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/cache/sqlite"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/db/memory"
	mongostore "github.com/tradeworks/contractor-hub/internal/infrastructure/db/mongo"
	redisstore "github.com/tradeworks/contractor-hub/internal/infrastructure/db/redis"
	"github.com/tradeworks/contractor-hub/internal/pkg/config"
)

const recurringInterval = 24 * time.Hour

// SchemaEnsurer is implemented by remote stores that can create their own
// collections and indexes.
type SchemaEnsurer interface {
	CheckSchema(ctx context.Context) error
	EnsureSchema(ctx context.Context) error
}

// Agent owns the controller and the connections behind it.
type Agent struct {
	cfg        *config.AgentConfig
	remote     ports.RemoteStore
	cache      ports.LocalCache
	conn       *service.Connectivity
	controller *service.SyncController
	closers    []func(context.Context) error
	log        zerolog.Logger
	now        func() time.Time
}

// New opens the configured store and cache drivers. A remote store that is
// unreachable at startup is not an error: the agent starts offline.
func New(ctx context.Context, cfg *config.AgentConfig, log zerolog.Logger) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{cfg: cfg, log: log, now: func() time.Time { return time.Now().UTC() }}

	remote, err := a.openRemote(ctx)
	if err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}
	cache, err := a.openCache(ctx)
	if err != nil {
		return nil, errors.Join(err, a.Close(ctx))
	}
	return a.wire(remote, cache), nil
}

// NewWith assembles an agent over already-open adapters.
func NewWith(cfg *config.AgentConfig, remote ports.RemoteStore, cache ports.LocalCache, log zerolog.Logger) *Agent {
	a := &Agent{cfg: cfg, log: log, now: func() time.Time { return time.Now().UTC() }}
	return a.wire(remote, cache)
}

func (a *Agent) wire(remote ports.RemoteStore, cache ports.LocalCache) *Agent {
	a.remote, a.cache = remote, cache
	a.conn = service.NewConnectivity(false, a.log.With().Str("component", "connectivity").Logger())
	a.controller = service.NewSyncController(a.cfg.AccountID, remote, cache, a.conn,
		a.log.With().Str("component", "sync").Logger(),
		service.WithProbeTimeout(a.cfg.ProbeTimeout))
	return a
}

func (a *Agent) openRemote(ctx context.Context) (ports.RemoteStore, error) {
	switch a.cfg.StoreDriver {
	case "memory":
		return memory.NewStore(), nil
	case "mongo":
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      a.cfg.Mongo.URI,
			Database: a.cfg.Mongo.Database,
			Timeout:  a.cfg.ProbeTimeout,
		})
		if err != nil {
			// Start offline; the store is reachable again once Ping succeeds.
			a.log.Warn().Err(err).Msg("remote store unreachable at startup")
			client, db, err = mongostore.Lazy(a.cfg.Mongo.URI, a.cfg.Mongo.Database, a.cfg.ProbeTimeout)
			if err != nil {
				return nil, err
			}
		}
		a.closers = append(a.closers, client.Disconnect)
		return mongostore.NewStore(client, db), nil
	}
	return nil, fmt.Errorf("agent: unknown store driver %q", a.cfg.StoreDriver)
}

func (a *Agent) openCache(ctx context.Context) (ports.LocalCache, error) {
	switch a.cfg.CacheDriver {
	case "memory":
		return memory.NewCache(), nil
	case "sqlite":
		c, err := sqlite.Open(ctx, a.cfg.CachePath, a.cfg.AccountID, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		return c, nil
	case "redis":
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("agent: redis cache: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return redisstore.NewCache(client, a.cfg.AccountID), nil
	}
	return nil, fmt.Errorf("agent: unknown cache driver %q", a.cfg.CacheDriver)
}

func (a *Agent) Controller() *service.SyncController { return a.controller }

// Start checks the remote schema when reachable and runs the first refresh.
// With ensure set, missing collections are created first.
func (a *Agent) Start(ctx context.Context, ensure bool) error {
	if se, ok := a.remote.(SchemaEnsurer); ok && a.remote.Ping(ctx) == nil {
		check := se.CheckSchema
		if ensure {
			check = se.EnsureSchema
		}
		if err := check(ctx); err != nil {
			a.log.Error().Err(err).Msg("remote schema check failed")
		}
	}
	return a.controller.Start(ctx)
}

// Watch runs the connectivity probe, the periodic refresh and the daily
// recurring run until ctx is cancelled or the session halts.
func (a *Agent) Watch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.conn.Run(ctx, a.remote, a.cfg.ProbeInterval, a.cfg.ProbeTimeout)
		return nil
	})

	g.Go(func() error {
		return every(ctx, a.cfg.SyncInterval, func() error {
			if !a.conn.Online() {
				return nil
			}
			err := a.controller.Refresh(ctx)
			if errors.Is(err, domain.ErrSchemaMismatch) || errors.Is(err, domain.ErrSessionHalted) {
				return err
			}
			if err != nil {
				a.log.Warn().Err(err).Msg("periodic refresh incomplete")
			}
			return nil
		})
	})

	g.Go(func() error {
		run := func() error {
			if !a.conn.Online() {
				return nil
			}
			n, err := a.controller.RunRecurring(ctx, a.now())
			if errors.Is(err, domain.ErrSessionHalted) {
				return err
			}
			if err != nil {
				a.log.Warn().Err(err).Int("drafts", n).Msg("recurring run incomplete")
			} else if n > 0 {
				a.log.Info().Int("drafts", n).Msg("recurring drafts created")
			}
			return nil
		}
		if err := run(); err != nil {
			return err
		}
		return every(ctx, recurringInterval, run)
	})

	err := g.Wait()
	if ctx.Err() != nil && err == nil {
		return nil
	}
	return err
}

// every calls fn each interval until ctx ends or fn fails.
func every(ctx context.Context, interval time.Duration, fn func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(); err != nil {
				return err
			}
		}
	}
}

// Close stops the controller and releases connections in reverse order.
func (a *Agent) Close(ctx context.Context) error {
	if a.controller != nil {
		a.controller.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
