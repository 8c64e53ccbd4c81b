// Package clock abstracts wall time, one-shot timers and frame tickers so the
// engine can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// Clock provides the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Ticker delivers frame callbacks while started.
type Ticker interface {
	Start(fn func(now time.Time))
	Stop()
	Running() bool
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// IntervalTicker is a Ticker backed by time.Ticker. Callbacks run on the
// ticker goroutine unless a post function is supplied.
type IntervalTicker struct {
	interval time.Duration
	post     func(func())

	mu   sync.Mutex
	stop chan struct{}
}

// NewIntervalTicker creates a ticker firing every interval. post marshals each
// frame onto the caller's control loop; nil runs frames inline.
func NewIntervalTicker(interval time.Duration, post func(func())) *IntervalTicker {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &IntervalTicker{interval: interval, post: post}
}

func (t *IntervalTicker) Start(fn func(now time.Time)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				if t.post == nil {
					fn(now)
					continue
				}
				t.post(func() {
					select {
					case <-stop:
					default:
						fn(now)
					}
				})
			}
		}
	}()
}

func (t *IntervalTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *IntervalTicker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}
