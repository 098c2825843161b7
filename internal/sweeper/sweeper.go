// Package sweeper expires clients that stop heart-beating, reclaiming their
// sessions without any client action. One sweeper runs per client kind.
package sweeper

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playbrawl/party-backend/internal/clock"
)

// Client is any heartbeat-carrying session the sweeper can watch.
type Client interface {
	SessionID() string
	LastHeartbeat() time.Time
	Touch()
}

// Config wires one client collection into the sweep loop.
type Config struct {
	Label          string
	TickInterval   time.Duration
	StaleThreshold time.Duration
	ListClients    func() []Client
	Expire         func(Client) error
}

// Sweeper periodically expires clients whose heartbeat went stale. A failed
// expiry is logged and never aborts the tick or touches other clients.
type Sweeper struct {
	cfg  Config
	clk  clock.Clock
	log  *zap.Logger
	quit chan struct{}
	stop func()
	once sync.Once
}

// Start launches the sweep loop.
func Start(clk clock.Clock, log *zap.Logger, cfg Config) *Sweeper {
	ticks, stop := clk.Tick(cfg.TickInterval)
	s := &Sweeper{
		cfg:  cfg,
		clk:  clk,
		log:  log,
		quit: make(chan struct{}),
		stop: stop,
	}
	go s.run(ticks)
	return s
}

// Touch refreshes a client's heartbeat, typically on every successful poll.
func (s *Sweeper) Touch(c Client) { c.Touch() }

// Shutdown stops the sweep loop. Safe to call more than once.
func (s *Sweeper) Shutdown() {
	s.once.Do(func() {
		s.stop()
		close(s.quit)
	})
}

func (s *Sweeper) run(ticks <-chan time.Time) {
	for {
		select {
		case <-s.quit:
			return
		case <-ticks:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	for _, c := range s.cfg.ListClients() {
		stale := s.clk.Since(c.LastHeartbeat())
		if stale <= s.cfg.StaleThreshold {
			continue
		}
		if err := s.expire(c); err != nil {
			s.log.Error("failed to expire stale client",
				zap.String("kind", s.cfg.Label),
				zap.String("session", c.SessionID()),
				zap.Error(err))
			continue
		}
		s.log.Info("expired stale client",
			zap.String("kind", s.cfg.Label),
			zap.String("session", c.SessionID()),
			zap.Duration("stale", stale))
	}
}

// expire isolates one client's expiry so a panic cannot kill the tick.
func (s *Sweeper) expire(c Client) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("expire panicked: %v", r)
		}
	}()
	return s.cfg.Expire(c)
}
