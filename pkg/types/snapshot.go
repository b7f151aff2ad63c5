package types

import "time"

// Snapshot is a point-in-time copy of the observable model's state.
type Snapshot struct {
	A          float64
	B          float64
	Value      float64
	Updates    uint64 // recomputations since construction
	Batches    uint64 // completed batches since construction
	Suppressed bool   // true while at least one batch is open
	At         time.Time
}

// Sum returns the amount the next recompute will add to Value.
func (s Snapshot) Sum() float64 {
	return s.A + s.B
}
