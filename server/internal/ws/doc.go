// Package ws implements the WebSocket hub for paramwatch.
//
// Hub manages a set of connected clients and pushes model state to them:
//   - "update" on every model recompute, via Notify (a model observer)
//   - "snapshot" immediately on connect and then on every heartbeat
//     interval, so idle clients still see suppression changes
//
// New(source, interval) creates a Hub.
// Hub.Run(ctx) starts the heartbeat ticker; it blocks until ctx is cancelled,
// then closes all active connections.
//
// Message format sent to clients:
//
//	{
//	  "event": "update" | "snapshot",
//	  "data":  { /* same schema as GET /api/v1/model */ }
//	}
//
// A client whose send buffer is full is disconnected rather than allowed to
// stall the model. The upgrader accepts all origins; apply CORS at the
// reverse proxy. The server mounts the hub at /ws/stream.
package ws
