package main

import (
	"sync"
	"time"
)

// fakeClock records scheduled callbacks and fires them on demand
type fakeClock struct {
	entries []*fakeEntry
}

type fakeEntry struct {
	fn      func()
	stopped bool
}

func (c *fakeClock) Every(d time.Duration, fn func()) func() {
	e := &fakeEntry{fn: fn}
	c.entries = append(c.entries, e)
	return func() { e.stopped = true }
}

// Tick fires every schedule that was live when Tick was called, once
func (c *fakeClock) Tick() {
	snapshot := append([]*fakeEntry(nil), c.entries...)
	for _, e := range snapshot {
		if !e.stopped {
			e.fn()
		}
	}
}

// Advance ticks n times
func (c *fakeClock) Advance(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// Live counts schedules that have not been stopped
func (c *fakeClock) Live() int {
	n := 0
	for _, e := range c.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}

// immediate runs posted work synchronously
func immediate(fn func()) { fn() }

// fixedRand always picks the same index
type fixedRand struct {
	n int
}

func (r fixedRand) Intn(bound int) int { return r.n % bound }

func (r fixedRand) Float64() float64 { return 0.5 }

// recordingPublisher captures envelopes for assertions
type recordingPublisher struct {
	mu  sync.Mutex
	all []Envelope
	to  map[string][]Envelope
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{to: make(map[string][]Envelope)}
}

func (p *recordingPublisher) PublishAll(env Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.all = append(p.all, env)
}

func (p *recordingPublisher) PublishTo(id string, env Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.to[id] = append(p.to[id], env)
}

// broadcasts returns every PublishAll envelope of type typ
func (p *recordingPublisher) broadcasts(typ string) []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Envelope
	for _, env := range p.all {
		if env.T == typ {
			out = append(out, env)
		}
	}
	return out
}

// sentTo returns every PublishTo envelope of type typ addressed to id
func (p *recordingPublisher) sentTo(id, typ string) []Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Envelope
	for _, env := range p.to[id] {
		if env.T == typ {
			out = append(out, env)
		}
	}
	return out
}

// reset forgets everything captured so far
func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.all = nil
	p.to = make(map[string][]Envelope)
}

// total counts all captured envelopes
func (p *recordingPublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.all)
	for _, envs := range p.to {
		n += len(envs)
	}
	return n
}
