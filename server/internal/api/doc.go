// Package api implements the HTTP REST API for paramwatch.
//
// New(model, history) returns an http.Handler that serves:
//
//	GET        /api/v1/health        liveness plus update counters
//	GET        /api/v1/model         current parameters and accumulated value
//	PUT|PATCH  /api/v1/model/params  set a and/or b in one batch (one recompute)
//	POST       /api/v1/model/update  one explicit recompute
//	GET        /api/v1/history       recorded updates within the history TTL
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for unsupported methods
//   - Report failures as {"error": "..."}
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
