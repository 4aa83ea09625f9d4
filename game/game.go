package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/HandyGold75/GOLib/logger"
)

type (
	// Store persists the high score. A missing key reads as 0.
	Store interface {
		Get(key string) (int, error)
		Set(key string, value int) error
	}

	Config struct {
		GridSize     int
		Start        Cell
		TickPeriod   time.Duration
		Seed         uint64 // 0 seeds from the runtime source.
		HighScoreKey string
	}

	errGame struct{ InvalidGridSize, InvalidStart, NoStore error }

	subscriber struct {
		id int
		fn func(Snapshot)
	}

	// Engine owns the state of one game. Every mutating method runs to
	// completion under mu before another one may start.
	Engine struct {
		cfg   Config
		store Store
		lgr   *logger.Logger
		rng   *rand.Rand

		mu          sync.Mutex
		snake       []Cell
		food        Cell
		heading     Heading
		score       int
		highScore   int
		status      RunStatus
		cause       Cause
		newRecord   bool
		tick, seq   uint64
		subscribers []subscriber
		nextSubID   int

		// emitMu is always taken before mu and held until subscribers return,
		// so they see snapshots in the order the state changed.
		emitMu sync.Mutex

		persistMu sync.Mutex
	}
)

const (
	MinGridSize  = 5
	HighScoreKey = "snake-high-score"
)

var ErrGame = errGame{
	InvalidGridSize: errors.New("grid size should be at least 5"),
	InvalidStart:    errors.New("start cell is out of bounds"),
	NoStore:         errors.New("high score store is nil"),
}

// DefaultStart mirrors the classic 20x20 board starting at (8, 8).
func DefaultStart(gridSize int) Cell {
	return Cell{X: gridSize * 2 / 5, Y: gridSize * 2 / 5}
}

func DefaultConfig() Config {
	return Config{
		GridSize:     20,
		Start:        DefaultStart(20),
		TickPeriod:   150 * time.Millisecond,
		HighScoreKey: HighScoreKey,
	}
}

func NewEngine(cfg Config, st Store, lgr *logger.Logger) (*Engine, error) {
	if cfg.GridSize < MinGridSize {
		return &Engine{}, ErrGame.InvalidGridSize
	}
	if !cfg.Start.InBounds(cfg.GridSize) {
		return &Engine{}, ErrGame.InvalidStart
	}
	if st == nil {
		return &Engine{}, ErrGame.NoStore
	}
	if cfg.HighScoreKey == "" {
		cfg.HighScoreKey = HighScoreKey
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	e := &Engine{
		cfg:    cfg,
		store:  st,
		lgr:    lgr,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		snake:  []Cell{cfg.Start},
		status: Idle,
	}

	highScore, err := st.Get(cfg.HighScoreKey)
	if err != nil {
		e.log("high", "Error", fmt.Errorf("reading high score: %w", err))
	} else if highScore > 0 {
		e.highScore = highScore
	}

	e.food, _ = e.placeFood(e.snake)

	return e, nil
}

func (e *Engine) log(verbosity, action string, msg any) {
	if e.lgr == nil {
		return
	}
	e.lgr.Log(verbosity, action, msg)
}

func (e *Engine) Config() Config { return e.cfg }

// Subscribe registers fn for every snapshot emitted after a start or an
// applied tick. fn runs synchronously and must not call Start or Tick;
// reading accessors and SetHeading are fine, from any goroutine.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextSubID
	e.nextSubID++
	e.subscribers = append(e.subscribers, subscriber{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subscribers = slices.DeleteFunc(e.subscribers, func(s subscriber) bool { return s.id == id })
	}
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) Status() RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Heading() Heading {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heading
}

func (e *Engine) HighScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.highScore
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:       e.seq,
		Tick:      e.tick,
		Grid:      e.cfg.GridSize,
		Snake:     slices.Clone(e.snake),
		Food:      e.food,
		Heading:   e.heading,
		Score:     e.score,
		HighScore: e.highScore,
		Status:    e.status,
		Cause:     e.cause,
		NewRecord: e.newRecord,
	}
}

// commitLocked releases mu and hands the new snapshot to every subscriber.
// The caller holds emitMu, taken before mu, and releases it afterwards.
func (e *Engine) commitLocked() Snapshot {
	e.seq++
	snap := e.snapshotLocked()
	subs := slices.Clone(e.subscribers)
	e.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}

	return snap
}

// Start (re)initialises the run. A run abandoned by restarting is never
// credited to the high score.
func (e *Engine) Start() {
	e.emitMu.Lock()
	e.mu.Lock()
	e.snake = []Cell{e.cfg.Start}
	e.heading = None
	e.score = 0
	e.tick = 0
	e.cause = ""
	e.newRecord = false
	e.food, _ = e.placeFood(e.snake)
	e.status = Running
	snap := e.commitLocked()
	e.emitMu.Unlock()

	e.log("low", "Start", fmt.Sprintf("grid %v, start %v, food %v", snap.Grid, snap.Head(), snap.Food))
}

// SetHeading reports whether h was accepted. Input is dropped while the run is
// not active and when h reverses the current heading.
func (e *Engine) SetHeading(h Heading) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != Running || !h.Valid() {
		return false
	}
	if e.heading != None && h == e.heading.Opposite() {
		return false
	}

	e.heading = h
	return true
}

// Tick advances the snake by one cell. Nothing happens until the run is active
// and a first heading has been committed.
func (e *Engine) Tick() Snapshot {
	e.emitMu.Lock()
	e.mu.Lock()
	if e.status != Running || e.heading == None {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.emitMu.Unlock()
		return snap
	}

	newHead := e.snake[0].Add(e.heading.Delta())
	ateFood := newHead == e.food

	candidate := make([]Cell, 0, len(e.snake)+1)
	candidate = append(candidate, newHead)
	candidate = append(candidate, e.snake...)
	if !ateFood {
		candidate = candidate[:len(candidate)-1]
	}

	outOfBounds := !newHead.InBounds(e.cfg.GridSize)
	hitSelf := slices.Contains(candidate[1:], newHead)
	if outOfBounds || hitSelf {
		cause := CauseSelf
		if outOfBounds {
			cause = CauseWall
		}
		record := e.endRunLocked(cause)
		snap := e.commitLocked()
		e.emitMu.Unlock()
		e.finishRun(snap, record)
		return snap
	}

	e.snake = candidate
	e.tick++

	record, ended := false, false
	if ateFood {
		e.score++
		if food, ok := e.placeFood(e.snake); ok {
			e.food = food
		} else {
			record, ended = e.endRunLocked(CauseBoardFull), true
		}
	}

	snap := e.commitLocked()
	e.emitMu.Unlock()
	if ended {
		e.finishRun(snap, record)
	}
	return snap
}

// endRunLocked performs the single Running -> Over transition and reports
// whether the finished run set a new high score.
func (e *Engine) endRunLocked(cause Cause) bool {
	e.status = Over
	e.cause = cause
	e.snake = []Cell{e.cfg.Start}
	e.heading = None

	e.newRecord = e.score > e.highScore
	if e.newRecord {
		e.highScore = e.score
	}
	return e.newRecord
}

func (e *Engine) finishRun(snap Snapshot, record bool) {
	e.log("low", "Game Over", fmt.Sprintf("%v after %v ticks, score %v", snap.Cause, snap.Tick, snap.Score))
	if !record {
		return
	}
	e.log("medium", "Record", snap.Score)

	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	// The high score only grows, writing the latest value keeps the store
	// monotonic even if two runs end back to back.
	if err := e.store.Set(e.cfg.HighScoreKey, e.HighScore()); err != nil {
		e.log("high", "Error", fmt.Errorf("writing high score: %w", err))
	}
}

// placeFood draws uniform cells until one is free. Past 4*G*G rejections it
// picks from the explicit free-cell list instead, so a crowded board still
// terminates. It reports false when no cell is free.
func (e *Engine) placeFood(occupied []Cell) (Cell, bool) {
	size := e.cfg.GridSize
	if len(occupied) >= size*size {
		return Cell{}, false
	}

	for range 4 * size * size {
		cell := Cell{X: e.rng.IntN(size), Y: e.rng.IntN(size)}
		if !slices.Contains(occupied, cell) {
			return cell, true
		}
	}

	free := []Cell{}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if cell := (Cell{X: x, Y: y}); !slices.Contains(occupied, cell) {
				free = append(free, cell)
			}
		}
	}
	if len(free) == 0 {
		return Cell{}, false
	}

	return free[e.rng.IntN(len(free))], true
}
