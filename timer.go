package main

import (
	"errors"
	"sync"
	"time"
)

// ErrStaleTimer marks a tick delivered for a timer that is no longer live
var ErrStaleTimer = errors.New("stale timer tick")

// Clock schedules periodic callbacks. The returned func stops the schedule and
// is safe to call more than once.
type Clock interface {
	Every(d time.Duration, fn func()) (stop func())
}

type realClock struct{}

func (realClock) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Timer is a one-second countdown owned by a single goroutine. Ticks from the
// clock are handed to post, which must run them on the owner's goroutine.
// At most one countdown is live: Start always cancels the previous one, and
// every tick carries the generation it was scheduled under.
type Timer struct {
	clock Clock
	post  func(func())

	stop      func()
	gen       uint64
	remaining int
	onTick    func(remaining int)
	onExpire  func()
	onStale   func(error)
}

// NewTimer creates an idle timer
func NewTimer(clock Clock, post func(func())) *Timer {
	return &Timer{clock: clock, post: post}
}

// Start begins a countdown of seconds. onTick runs after every second that
// does not finish the countdown; onExpire runs exactly once when it reaches
// zero. Either callback may be nil.
func (t *Timer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	t.Cancel()
	t.gen++
	if seconds <= 0 {
		t.remaining = 0
		if onExpire != nil {
			onExpire()
		}
		return
	}
	gen := t.gen
	t.remaining = seconds
	t.onTick = onTick
	t.onExpire = onExpire
	t.stop = t.clock.Every(time.Second, func() {
		t.post(func() { t.fire(gen) })
	})
}

// Cancel stops the live countdown, if any, and resets the remaining time
func (t *Timer) Cancel() {
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.remaining = 0
	t.onTick = nil
	t.onExpire = nil
}

// Active reports whether a countdown is running
func (t *Timer) Active() bool {
	return t.stop != nil
}

// Remaining returns the seconds left on the live countdown
func (t *Timer) Remaining() int {
	return t.remaining
}

func (t *Timer) fire(gen uint64) {
	if gen != t.gen || t.stop == nil {
		if t.onStale != nil {
			t.onStale(ErrStaleTimer)
		}
		return
	}
	t.remaining--
	if t.remaining <= 0 {
		expire := t.onExpire
		t.Cancel()
		if expire != nil {
			expire()
		}
		return
	}
	if t.onTick != nil {
		t.onTick(t.remaining)
	}
}
