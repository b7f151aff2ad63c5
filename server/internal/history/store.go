package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paramwatch/paramwatch/pkg/types"
)

// Entry is one recorded update together with the time it was appended.
type Entry struct {
	Seq        uint64
	Snapshot   types.Snapshot
	RecordedAt time.Time
}

// Store is a thread-safe in-memory update log.
// A background goroutine (Run) periodically evicts entries older than the
// configured TTL.
type Store struct {
	mu      sync.RWMutex
	entries []*Entry // oldest first
	seq     uint64
	ttl     time.Duration
	max     int
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL and maximum length.
// maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		ttl: ttl,
		max: maxEntries,
		now: time.Now,
	}
}

// Append records snap. It has the signature of a model observer so it can be
// passed straight to Model.Subscribe.
func (s *Store) Append(snap types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.entries = append(s.entries, &Entry{
		Seq:        s.seq,
		Snapshot:   snap,
		RecordedAt: s.now(),
	})
	if s.max > 0 && len(s.entries) > s.max {
		drop := len(s.entries) - s.max
		s.entries = append(s.entries[:0:0], s.entries[drop:]...)
	}
}

// List returns all entries recorded within the TTL, oldest first.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.RecordedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the most recent entry and whether one exists. The entry may
// be stale if TTL has elapsed.
func (s *Store) Latest() (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[len(s.entries)-1], true
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Evict removes entries whose RecordedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)

	// Entries are appended in time order, so the stale ones form a prefix.
	n := 0
	for n < len(s.entries) && !s.entries[n].RecordedAt.After(cutoff) {
		n++
	}
	if n > 0 {
		s.entries = append(s.entries[:0:0], s.entries[n:]...)
	}
	return n
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("history: evicted stale entries", "count", n)
			}
		}
	}
}
