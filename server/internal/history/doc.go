// Package history keeps a bounded, TTL-evicted log of model updates.
//
// A Store is fed by a model observer: every recompute appends one Entry.
// List returns live entries oldest first; entries older than the TTL are
// hidden immediately and removed by the Run eviction loop. The log is capped
// at maxEntries, dropping the oldest record when full.
//
// Nothing is persisted; a restart starts with an empty log.
package history
