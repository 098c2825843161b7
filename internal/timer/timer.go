// Package timer implements the quorum-or-timeout race primitive: one
// cancelable timer slot per room key, whose payload is an accumulator that
// callers mutate in place while the timer runs. Whichever settles first of
// {deadline, explicit dequeue} wins; the loser has no effect.
package timer

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
)

// Result is the outcome of one timer race. Payload holds the accumulator as
// it stood at settlement, so a deadline still returns partial progress.
// Superseded marks a subscription that was displaced by a newer queue or an
// explicit dispose; its payload should not be trusted as a phase result.
type Result[M any] struct {
	Payload    M
	TimedOut   bool
	Superseded bool
}

// Subscription is one live timer slot. Exactly one goroutine waits on it.
type Subscription[M any] struct {
	typ  string
	done chan Result[M]

	mu      sync.Mutex
	payload M
	settled bool
	stop    func() bool
}

func (s *Subscription[M]) Type() string { return s.typ }

// Wait blocks until the subscription settles.
func (s *Subscription[M]) Wait() Result[M] { return <-s.done }

// settle resolves the subscription exactly once. Returns false if it had
// already settled.
func (s *Subscription[M]) settle(timedOut, superseded bool) bool {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		return false
	}
	s.settled = true
	if s.stop != nil {
		s.stop()
	}
	r := Result[M]{Payload: s.payload, TimedOut: timedOut, Superseded: superseded}
	s.mu.Unlock()
	s.done <- r
	return true
}

func (s *Subscription[M]) setStop(stop func() bool) {
	s.mu.Lock()
	settled := s.settled
	if !settled {
		s.stop = stop
	}
	s.mu.Unlock()
	if settled {
		stop()
	}
}

// Coordinator tracks at most one subscription per key.
type Coordinator[M any] struct {
	mu   sync.Mutex
	subs map[string]*Subscription[M]
	clk  clock.Clock
	log  *zap.Logger
}

func NewCoordinator[M any](clk clock.Clock, log *zap.Logger) *Coordinator[M] {
	return &Coordinator[M]{
		subs: make(map[string]*Subscription[M]),
		clk:  clk,
		log:  log,
	}
}

// Queue starts a new subscription for key, superseding any unfinished one.
// The seed value becomes the live accumulator.
func (c *Coordinator[M]) Queue(key, typ string, seed M, d time.Duration) *Subscription[M] {
	sub := &Subscription[M]{
		typ:     typ,
		payload: seed,
		done:    make(chan Result[M], 1),
	}
	c.mu.Lock()
	prev := c.subs[key]
	c.subs[key] = sub
	c.mu.Unlock()
	if prev != nil && prev.settle(false, true) {
		c.log.Info("superseded unfinished timer",
			zap.String("key", key), zap.String("type", prev.typ))
	}
	sub.setStop(c.clk.AfterFunc(d, func() {
		sub.settle(true, false)
	}))
	return sub
}

// Mutate runs fn against the live accumulator for key under the slot lock,
// if a matching unsettled subscription exists.
func (c *Coordinator[M]) Mutate(key, typ string, fn func(*M)) bool {
	c.mu.Lock()
	sub := c.subs[key]
	c.mu.Unlock()
	if sub == nil || sub.typ != typ {
		return false
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.settled {
		return false
	}
	fn(&sub.payload)
	return true
}

// Dequeue completes the matching subscription before its deadline, resolving
// the waiter with the current accumulator contents. Returns false if no
// matching live subscription exists or the deadline already won.
func (c *Coordinator[M]) Dequeue(key, typ string) bool {
	c.mu.Lock()
	sub := c.subs[key]
	if sub == nil || sub.typ != typ {
		c.mu.Unlock()
		return false
	}
	c.subs[key] = nil
	c.mu.Unlock()
	return sub.settle(false, false)
}

// Dispose force-clears the key's subscription. Any waiter resolves with a
// Superseded result rather than blocking forever.
func (c *Coordinator[M]) Dispose(key string) {
	c.mu.Lock()
	sub := c.subs[key]
	if sub != nil {
		c.subs[key] = nil
	}
	c.mu.Unlock()
	if sub != nil {
		sub.settle(false, true)
	}
}

// Release disposes and removes the key's bookkeeping entirely.
func (c *Coordinator[M]) Release(key string) {
	c.mu.Lock()
	sub := c.subs[key]
	delete(c.subs, key)
	c.mu.Unlock()
	if sub != nil {
		sub.settle(false, true)
	}
}
