package store

import (
	"context"
	"math"
	"sync"

	"github.com/serroba/sliding-window/internal/window"
)

type windowEntry struct {
	member int64
	score  int64
}

type memoryWindow struct {
	entries   []windowEntry
	expiresAt int64 // milliseconds
}

// MemoryWindowStore is an in-memory implementation of window.Store.
// One mutex serialises every composite operation, so it is only atomic
// within a single process. Expired keys are swept once the earliest known
// expiry has passed.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow

	// nextExpiry is a lower bound on every stored expiresAt.
	nextExpiry int64
}

// NewMemoryWindowStore creates a new in-memory sliding window store.
func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		windows: make(map[string]*memoryWindow),
	}
}

func (s *MemoryWindowStore) Apply(ctx context.Context, req window.Request) (window.Result, error) {
	if err := ctx.Err(); err != nil {
		return window.Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.windows) > 0 && s.nextExpiry <= req.Now {
		s.sweep(req.Now)
	}

	w, ok := s.windows[req.Key]
	if !ok || w.expiresAt <= req.Now {
		w = &memoryWindow{}
	}

	// Prune entries that left the window
	floor := req.Floor()
	valid := make([]windowEntry, 0, len(w.entries)+1)

	for _, e := range w.entries {
		if e.score > floor {
			valid = append(valid, e)
		}
	}

	valid = append(valid, windowEntry{member: req.Member, score: req.Now})
	w.entries = valid
	w.expiresAt = req.Now + req.ExpireSeconds*1000

	count := int64(len(valid))
	exceeded := req.Exceeds(count)

	if exceeded && req.Mode == window.ModeEvaluateAndCleanup {
		delete(s.windows, req.Key)
	} else {
		s.windows[req.Key] = w

		if len(s.windows) == 1 || w.expiresAt < s.nextExpiry {
			s.nextExpiry = w.expiresAt
		}
	}

	return window.Result{Count: count, Exceeded: exceeded}, nil
}

// sweep drops every window expired at now and recomputes nextExpiry.
func (s *MemoryWindowStore) sweep(now int64) {
	next := int64(math.MaxInt64)

	for key, w := range s.windows {
		if w.expiresAt <= now {
			delete(s.windows, key)

			continue
		}

		next = min(next, w.expiresAt)
	}

	s.nextExpiry = next
}

// Size returns the number of keys held, expired or not.
func (s *MemoryWindowStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// Len returns the number of entries stored under key, ignoring expiry.
func (s *MemoryWindowStore) Len(key string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		return 0
	}

	return int64(len(w.entries))
}

// Compile-time check.
var _ window.Store = (*MemoryWindowStore)(nil)
