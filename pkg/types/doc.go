// Package types defines shared Go types used across the server packages.
// These are the canonical in-memory representations of model state,
// separate from the JSON shapes the API and WebSocket hub emit.
package types
