package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

func TestConnectivity_SetNotifiesOnChangeOnly(t *testing.T) {
	c := NewConnectivity(true, zerolog.Nop())
	var got []bool
	c.Subscribe(func(online bool) { got = append(got, online) })

	c.Set(true)
	c.Set(false)
	c.Set(false)
	c.Set(true)

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("expected [false true], got %v", got)
	}
}

func TestConnectivity_Unsubscribe(t *testing.T) {
	c := NewConnectivity(true, zerolog.Nop())
	calls := 0
	unsubscribe := c.Subscribe(func(bool) { calls++ })
	unsubscribe()

	c.Set(false)
	if calls != 0 {
		t.Errorf("expected no notification after unsubscribe, got %d", calls)
	}
}

func TestConnectivity_Probe(t *testing.T) {
	c := NewConnectivity(true, zerolog.Nop())
	p := &stubPinger{err: errors.New("unreachable")}

	if c.Probe(context.Background(), p, time.Second) {
		t.Error("expected probe to fail")
	}
	if c.Online() {
		t.Error("expected offline after failed probe")
	}

	p.err = nil
	if !c.Probe(context.Background(), p, time.Second) || !c.Online() {
		t.Error("expected online after successful probe")
	}
}

func TestConnectivity_RunStopsOnCancel(t *testing.T) {
	c := NewConnectivity(false, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, &stubPinger{}, 5*time.Millisecond, time.Second)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for !c.Online() {
		select {
		case <-deadline:
			t.Fatal("expected Run to probe and flip online")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-deadline:
		t.Fatal("expected Run to return after cancel")
	}
}
