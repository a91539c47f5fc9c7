// Package clock abstracts time so the replay driver can run the exact
// same decision code against logical, event-log time.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock supplies the current time to the decision pipeline.
type Clock interface {
	// Now returns the current time in Unix milliseconds.
	Now() int64
}

// Wall is the live-mode clock.
type Wall struct{}

// Now returns wall-clock time in Unix milliseconds.
func (Wall) Now() int64 {
	return time.Now().UnixMilli()
}

// Logical is a manually advanced clock driven by event timestamps.
// Safe for concurrent reads; replay advances it single-threaded.
type Logical struct {
	now atomic.Int64
}

// NewLogical creates a logical clock starting at start (Unix ms).
func NewLogical(start int64) *Logical {
	l := &Logical{}
	l.now.Store(start)
	return l
}

// Now returns the current logical time in Unix milliseconds.
func (l *Logical) Now() int64 {
	return l.now.Load()
}

// Advance moves the clock forward to t. Moving backwards is ignored so
// the clock stays monotonic even if a caller passes a stale timestamp.
func (l *Logical) Advance(t int64) {
	for {
		cur := l.now.Load()
		if t <= cur || l.now.CompareAndSwap(cur, t) {
			return
		}
	}
}

var (
	_ Clock = Wall{}
	_ Clock = (*Logical)(nil)
)
