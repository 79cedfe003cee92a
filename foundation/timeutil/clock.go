package timeutil

import (
	"sync"
	"time"
)

// Clock abstracts a time source. Implementations return UTC.
type Clock interface {
	Now() time.Time
}

// UTCClock uses system time in UTC.
type UTCClock struct{}

func (UTCClock) Now() time.Time { return time.Now().UTC() }

// FrozenClock keeps a fixed time with manual advancement.
type FrozenClock struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFrozenClock(t time.Time) *FrozenClock { return &FrozenClock{t: t.UTC()} }

func (c *FrozenClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

func (c *FrozenClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t.UTC()
	c.mu.Unlock()
}

func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Or returns c, or UTCClock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return UTCClock{}
	}
	return c
}

// Millis converts t to epoch milliseconds, the resolution records are
// stamped with. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis is the inverse of Millis.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
