package filter

import (
	"fmt"
	"sync"
	"time"
)

// CreatorTracker screens serial token deployers. A creator that
// launches too many tokens inside 24h, or two tokens closer together
// than the configured interval, is blacklisted for the session.
type CreatorTracker struct {
	maxPerDay   int
	minInterval time.Duration

	mu        sync.Mutex
	history   map[string][]int64 // creator -> launch timestamps (Unix ms), ascending
	blacklist map[string]struct{}
}

// NewCreatorTracker creates a tracker with the given limits. A
// non-positive maxPerDay disables the batch check; a non-positive
// minInterval disables the rapid-launch check.
func NewCreatorTracker(maxPerDay int, minInterval time.Duration) *CreatorTracker {
	return &CreatorTracker{
		maxPerDay:   maxPerDay,
		minInterval: minInterval,
		history:     make(map[string][]int64),
		blacklist:   make(map[string]struct{}),
	}
}

// Observe records a launch by creator at ts and returns a non-empty
// rejection reason if the creator is (or becomes) blacklisted.
func (t *CreatorTracker) Observe(creator string, ts int64) string {
	if creator == "" {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, banned := t.blacklist[creator]; banned {
		return fmt.Sprintf("Creator blacklisted: %s", creator)
	}

	// Drop history older than 24h before appending.
	cutoff := ts - 24*time.Hour.Milliseconds()
	kept := t.history[creator][:0]
	for _, prev := range t.history[creator] {
		if prev >= cutoff {
			kept = append(kept, prev)
		}
	}
	t.history[creator] = append(kept, ts)
	recent := t.history[creator]

	if t.minInterval > 0 && len(recent) >= 2 {
		interval := recent[len(recent)-1] - recent[len(recent)-2]
		if interval < t.minInterval.Milliseconds() {
			t.blacklist[creator] = struct{}{}
			return fmt.Sprintf("Rapid token creation: interval below %s", t.minInterval)
		}
	}

	if t.maxPerDay > 0 && len(recent) > t.maxPerDay {
		t.blacklist[creator] = struct{}{}
		return fmt.Sprintf("Batch creator: %d tokens in 24h", len(recent))
	}

	return ""
}

// Tracked returns the number of creators with recent history.
func (t *CreatorTracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}

// Blacklisted returns the number of session-blacklisted creators.
func (t *CreatorTracker) Blacklisted() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.blacklist)
}
