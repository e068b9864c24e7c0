// Package ticker runs a task at a fixed period on a single goroutine.
package ticker

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidPeriod is returned for a zero or negative period.
var ErrInvalidPeriod = errors.New("ticker: period must be positive")

// Task is called once per period. Returning false stops the ticker.
type Task func() bool

// Ticker is a repeating task with a start/stop lifecycle. Fires never
// overlap: the task always runs on the ticker's own goroutine.
type Ticker struct {
	period time.Duration
	task   Task

	mu     sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

func New(period time.Duration, task Task) (*Ticker, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	return &Ticker{period: period, task: task}, nil
}

// Start launches the loop. Calling Start on a running ticker does nothing.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runningLocked() {
		return
	}
	if t.cancel != nil {
		// left over from a task that stopped itself
		close(t.cancel)
	}
	t.cancel = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.cancel, t.done)
}

// Stop cancels the loop and waits for it to exit, so once Stop returns the
// task will not fire again. It must not be called from inside the task.
func (t *Ticker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	close(cancel)
	<-done
}

// Running reports whether the loop goroutine is still alive.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runningLocked()
}

func (t *Ticker) runningLocked() bool {
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Ticker) run(cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	tick := time.NewTicker(t.period)
	defer tick.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-tick.C:
			// Stop racing with a fire wins
			select {
			case <-cancel:
				return
			default:
			}
			if !t.task() {
				return
			}
		}
	}
}
