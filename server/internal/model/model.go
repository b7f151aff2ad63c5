package model

import (
	"log/slog"
	"sync"
	"time"

	"github.com/paramwatch/paramwatch/pkg/types"
)

// Default parameter values for a freshly constructed Model.
const (
	DefaultA = 1.0
	DefaultB = 2.0
)

// Model is an observable pair of parameters with a derived accumulator.
//
// value only changes inside Update; the setters never write it directly.
// Suppression is tracked as a count of open batches so that batches ended
// out of order by concurrent callers still leave the flag consistent.
type Model struct {
	mu      sync.Mutex
	a       float64
	b       float64
	value   float64
	depth   int // open batches; suppression is depth > 0
	updates uint64
	batches uint64

	observers []observer
	nextObsID uint64

	log *slog.Logger
	now func() time.Time // injectable for deterministic tests
}

type observer struct {
	id uint64
	fn func(types.Snapshot)
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithLogger sets the logger used for model events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithParams overrides the initial parameters. No recompute happens; value
// still starts at zero.
func WithParams(a, b float64) Option {
	return func(m *Model) {
		m.a = a
		m.b = b
	}
}

// New returns a Model with a=1.0, b=2.0 and value=0, adjusted by opts.
func New(opts ...Option) *Model {
	m := &Model{
		a:   DefaultA,
		b:   DefaultB,
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log.Info("model: created", "a", m.a, "b", m.b, "value", m.value)
	return m
}

// A returns the current value of parameter a.
func (m *Model) A() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.a
}

// B returns the current value of parameter b.
func (m *Model) B() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.b
}

// Value returns the accumulated value.
func (m *Model) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Suppressed reports whether setters currently skip the recompute.
func (m *Model) Suppressed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth > 0
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() types.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// SetA assigns parameter a and recomputes unless suppressed.
func (m *Model) SetA(v float64) {
	m.set("a", v, func() { m.a = v })
}

// SetB assigns parameter b and recomputes unless suppressed.
func (m *Model) SetB(v float64) {
	m.set("b", v, func() { m.b = v })
}

// Update adds the current a+b to the accumulated value and notifies
// observers. It runs regardless of suppression; calling it N times adds the
// sum N times.
func (m *Model) Update() {
	m.mu.Lock()
	snap, obs := m.updateLocked()
	m.mu.Unlock()
	notify(obs, snap)
}

// Subscribe registers fn to be called with the post-update snapshot after
// every recompute. The returned func removes the observer; it is safe to
// call more than once.
func (m *Model) Subscribe(fn func(types.Snapshot)) (cancel func()) {
	m.mu.Lock()
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observer{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

// set is the shared body of the parameter setters: assign, then recompute
// when no batch is open.
func (m *Model) set(name string, v float64, assign func()) {
	m.mu.Lock()
	assign()
	m.log.Info("model: param set", "param", name, "value", v)
	if m.depth > 0 {
		m.mu.Unlock()
		return
	}
	snap, obs := m.updateLocked()
	m.mu.Unlock()
	notify(obs, snap)
}

// updateLocked performs the recompute. m.mu must be held. It returns the new
// snapshot and the observers to notify once the lock is released.
func (m *Model) updateLocked() (types.Snapshot, []observer) {
	m.value += m.a + m.b
	m.updates++
	m.log.Info("model: updated", "a", m.a, "b", m.b, "value", m.value)

	obs := make([]observer, len(m.observers))
	copy(obs, m.observers)
	return m.snapshotLocked(), obs
}

func (m *Model) snapshotLocked() types.Snapshot {
	return types.Snapshot{
		A:          m.a,
		B:          m.b,
		Value:      m.value,
		Updates:    m.updates,
		Batches:    m.batches,
		Suppressed: m.depth > 0,
		At:         m.now(),
	}
}

func notify(obs []observer, snap types.Snapshot) {
	for _, o := range obs {
		o.fn(snap)
	}
}
