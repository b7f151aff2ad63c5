package model

import "sync"

// Batch is an open suppression scope returned by BeginBatch.
type Batch struct {
	m    *Model
	prev bool // suppression state observed at BeginBatch, for logging
	once sync.Once
}

// BeginBatch turns suppression on and returns a handle whose End restores
// the suppression state seen here and recomputes once.
//
// Nested batches are allowed. An inner End leaves suppression on for the
// enclosing batch; only the outermost End turns it off.
func (m *Model) BeginBatch() *Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &Batch{m: m, prev: m.depth > 0}
	m.depth++
	m.log.Debug("model: batch begin", "prev_suppressed", b.prev, "depth", m.depth)
	return b
}

// End restores the suppression state and performs exactly one recompute,
// however many parameters changed inside the batch. Only the first call on a
// handle has any effect, so a deferred End can coexist with an explicit one.
func (b *Batch) End() {
	b.once.Do(b.end)
}

func (b *Batch) end() {
	m := b.m
	m.mu.Lock()
	m.depth--
	m.batches++
	m.log.Debug("model: batch end", "suppressed", m.depth > 0, "depth", m.depth)
	snap, obs := m.updateLocked()
	m.mu.Unlock()
	notify(obs, snap)
}

// Batch runs fn with recomputation suppressed, then recomputes once.
//
// Suppression is restored and the recompute performed on every exit path. An
// error returned by fn is logged and returned unchanged after cleanup; a
// panic in fn propagates after cleanup.
func (m *Model) Batch(fn func() error) error {
	b := m.BeginBatch()
	defer b.End()

	if err := fn(); err != nil {
		m.log.Error("model: batch body failed", "err", err)
		return err
	}
	return nil
}
