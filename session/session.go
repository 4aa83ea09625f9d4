// Package session ties one engine to its tick driver and input controller.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"BSnake/driver"
	"BSnake/game"
	"BSnake/input"

	"github.com/HandyGold75/GOLib/logger"
	"github.com/google/uuid"
)

type Session struct {
	ID         string
	Engine     *game.Engine
	Controller *input.Controller

	driver *driver.Driver
	lgr    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	// mu serialises Start and Close. The bookkeeping below never waits on it.
	mu     sync.Mutex
	closed atomic.Bool

	seenMu   sync.Mutex
	lastSeen time.Time
}

func New(ctx context.Context, cfg game.Config, st game.Store, lgr *logger.Logger) (*Session, error) {
	e, err := game.NewEngine(cfg, st, lgr)
	if err != nil {
		return &Session{}, fmt.Errorf("creating engine: %w", err)
	}

	s := &Session{
		ID:       uuid.New().String(),
		Engine:   e,
		lgr:      lgr,
		lastSeen: time.Now(),
	}

	s.driver, err = driver.New(cfg.TickPeriod, func() bool { return e.Tick().Status == game.Running }, lgr)
	if err != nil {
		return &Session{}, fmt.Errorf("creating driver: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.Controller = input.NewController(s)

	return s, nil
}

func (s *Session) log(verbosity, action string, msg any) {
	if s.lgr == nil {
		return
	}
	s.lgr.Log(verbosity, action, msg)
}

// Start restarts the engine and its tick loop. It does nothing once the
// session is closed.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return
	}

	s.Engine.Start()
	s.driver.Start(s.ctx)
}

func (s *Session) Status() game.RunStatus        { return s.Engine.Status() }
func (s *Session) Heading() game.Heading         { return s.Engine.Heading() }
func (s *Session) SetHeading(h game.Heading) bool { return s.Engine.SetHeading(h) }
func (s *Session) Snapshot() game.Snapshot       { return s.Engine.Snapshot() }

func (s *Session) Subscribe(fn func(game.Snapshot)) func() { return s.Engine.Subscribe(fn) }

func (s *Session) Input(sym input.Symbol) bool {
	s.Touch()
	return s.Controller.HandleSymbol(sym)
}

func (s *Session) InputBytes(in []byte) bool {
	s.Touch()
	return s.Controller.HandleInput(in)
}

// Ticking reports whether the tick loop is alive.
func (s *Session) Ticking() bool { return s.driver.Running() }

func (s *Session) Touch() {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.lastSeen = time.Now()
}

func (s *Session) LastSeen() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

func (s *Session) Closed() bool { return s.closed.Load() }

// Close stops the tick loop for good. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Swap(true) {
		return
	}

	s.cancel()
	s.driver.Stop()
	s.log("medium", "Closed", s.ID)
}
