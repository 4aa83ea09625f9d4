// Package driver runs a callback on a fixed period, the heartbeat of a game.
package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HandyGold75/GOLib/logger"
)

type (
	errDriver struct{ InvalidPeriod, NoCallback error }

	// Driver calls fn once per period until fn returns false, the context
	// passed to Start is cancelled or Stop is called. At most one loop runs at
	// any time.
	Driver struct {
		period time.Duration
		fn     func() bool
		lgr    *logger.Logger

		mu     sync.Mutex
		cancel context.CancelFunc
		done   chan struct{}
	}
)

var ErrDriver = errDriver{
	InvalidPeriod: errors.New("period should be positive"),
	NoCallback:    errors.New("callback is nil"),
}

func New(period time.Duration, fn func() bool, lgr *logger.Logger) (*Driver, error) {
	if period <= 0 {
		return &Driver{}, ErrDriver.InvalidPeriod
	}
	if fn == nil {
		return &Driver{}, ErrDriver.NoCallback
	}

	return &Driver{period: period, fn: fn, lgr: lgr}, nil
}

func (d *Driver) log(verbosity, action string, msg any) {
	if d.lgr == nil {
		return
	}
	d.lgr.Log(verbosity, action, msg)
}

func (d *Driver) Period() time.Duration { return d.period }

// Start replaces any running loop with a new one. fn must not call Start or
// Stop itself.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel, d.done = cancel, done

	go d.loop(ctx, done)
}

// Stop blocks until the loop has exited. Calling it without a running loop is
// fine.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Driver) stopLocked() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel, d.done = nil, nil
}

func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

// Done is closed once the current loop exits. Without a loop it returns a
// closed channel.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return d.done
}

func (d *Driver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	d.log("low", "Driver", "started, period "+d.period.String())

	for {
		select {
		case <-ctx.Done():
			d.log("low", "Driver", "stopped")
			return
		case <-ticker.C:
			// A tick may race a cancel in the select above.
			if ctx.Err() != nil {
				d.log("low", "Driver", "stopped")
				return
			}
			if !d.fn() {
				d.log("low", "Driver", "finished")
				return
			}
		}
	}
}
