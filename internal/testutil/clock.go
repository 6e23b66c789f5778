package testutil

import (
	"sync"
	"time"
)

// DeterministicClock returns a fixed instant advanced by one second per call.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	n    int
}

// NewDeterministicClock starts at 2024-01-01T00:00:00Z.
//
// The first call to Now() returns the base instant.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the next instant.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * time.Second)
	c.n++
	return t
}

// Reset rewinds the clock to its base instant.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
