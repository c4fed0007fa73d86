// Package clock abstracts the current time so reconciliation can be tested
// with deterministic timestamps. Production code uses Real(); tests use
// NewFake.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real returns a Clock backed by time.Now
func Real() Clock { return realClock{} }

// Fake is a manually advanced Clock
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake set to now
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake's current time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the fake to t
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
