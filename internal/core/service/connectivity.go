package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/api/metrics"
)

// Pinger reports whether the remote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connectivity is the single process-wide online flag. Operations read it
// once; transitions are pushed to subscribers.
type Connectivity struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]func(online bool)
	nextID int
	log    zerolog.Logger
}

// NewConnectivity returns a monitor starting in the given state.
func NewConnectivity(online bool, log zerolog.Logger) *Connectivity {
	setOnlineGauge(online)
	return &Connectivity{
		online: online,
		subs:   make(map[int]func(bool)),
		log:    log,
	}
}

// Online returns the current flag.
func (c *Connectivity) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// Set updates the flag and notifies subscribers when it changed.
// Subscribers run synchronously, outside the lock, in no particular order.
func (c *Connectivity) Set(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	subs := make([]func(bool), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	setOnlineGauge(online)
	c.log.Info().Bool("online", online).Msg("connectivity changed")
	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns a function removing it.
func (c *Connectivity) Subscribe(fn func(online bool)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Probe pings p within timeout and records the outcome.
func (c *Connectivity) Probe(ctx context.Context, p Pinger, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := p.Ping(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("connectivity probe failed")
	}
	c.Set(err == nil)
	return err == nil
}

// Run probes p every interval until ctx is cancelled.
func (c *Connectivity) Run(ctx context.Context, p Pinger, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx, p, timeout)
		}
	}
}

func setOnlineGauge(online bool) {
	if online {
		metrics.Online.Set(1)
		return
	}
	metrics.Online.Set(0)
}
