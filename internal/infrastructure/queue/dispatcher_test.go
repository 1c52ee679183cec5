package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

type recordingBilling struct {
	mu   sync.Mutex
	seen map[string][]string
	done chan struct{}
	want int
	n    int
}

func newRecordingBilling(want int) *recordingBilling {
	return &recordingBilling{seen: map[string][]string{}, done: make(chan struct{}), want: want}
}

func (r *recordingBilling) Process(_ context.Context, e ports.BillingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[e.AccountID] = append(r.seen[e.AccountID], e.ID)
	r.n++
	if r.n == r.want {
		close(r.done)
	}
	return nil
}

func (r *recordingBilling) SetTier(context.Context, string, domain.Tier) error { return nil }

func TestDispatcher_PreservesPerAccountOrder(t *testing.T) {
	svc := newRecordingBilling(6)
	d := NewDispatcher(4, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, e := range []ports.BillingEvent{
		{ID: "1", AccountID: "a"}, {ID: "2", AccountID: "b"}, {ID: "3", AccountID: "a"},
		{ID: "4", AccountID: "b"}, {ID: "5", AccountID: "a"}, {ID: "6", AccountID: "c"},
	} {
		if err := d.TryEnqueue(e); err != nil {
			t.Fatalf("enqueue %s: %v", e.ID, err)
		}
	}

	select {
	case <-svc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if got := svc.seen["a"]; len(got) != 3 || got[0] != "1" || got[1] != "3" || got[2] != "5" {
		t.Errorf("account a out of order: %v", got)
	}
	if got := svc.seen["b"]; len(got) != 2 || got[0] != "2" || got[1] != "4" {
		t.Errorf("account b out of order: %v", got)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, newRecordingBilling(1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("acct-42")
	for range 10 {
		if d.shardIndex("acct-42") != first {
			t.Fatal("shard index must be deterministic")
		}
	}
}

func TestDispatcher_TryEnqueueFull(t *testing.T) {
	d := NewDispatcher(1, newRecordingBilling(-1), zerolog.Nop())
	for i := 0; i < channelBuffer; i++ {
		if err := d.TryEnqueue(ports.BillingEvent{AccountID: "a"}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := d.TryEnqueue(ports.BillingEvent{AccountID: "a"}); err != ErrQueueFull {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}
