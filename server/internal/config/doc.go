// Package config loads and watches the paramwatch configuration file.
//
// Top-level sections:
//   - model  : initial parameters a and b (defaults 1.0 and 2.0)
//   - server : http_port (default 8080) and broadcast_interval for the
//     WebSocket heartbeat (default 5s)
//   - history: ttl (default 10m) and max_entries (default 1000) for the
//     in-memory update log
//   - log    : level: debug | info | warn | error (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. Invalid reloads are logged and
// skipped; the previous config stays active.
package config
