// Package model holds the observable parameter model served by paramwatch.
//
// A Model carries two input parameters (a, b) and one derived accumulator
// (value). Setting either parameter recomputes the accumulator by adding the
// current a+b, unless suppression is active.
//
// Suppression is scoped through batches:
//
//	err := m.Batch(func() error {
//	    m.SetA(10)
//	    m.SetB(10)
//	    return nil
//	})
//
// A batch restores the suppression flag it found on entry and performs
// exactly one recompute when it ends, on every exit path: normal return,
// returned error, or panic. Errors and panics from the body reach the caller
// only after that cleanup. BeginBatch/End expose the same mechanism for
// callers whose scope does not fit in a closure.
//
// Every recompute is an event: Subscribe registers observers that receive a
// types.Snapshot after each update. Observers run synchronously, outside the
// model lock, in registration order.
//
// All exported methods are safe for concurrent use. A single mutex guards the
// parameters, the accumulator and the suppression flag together.
package model
