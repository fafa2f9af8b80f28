// Package ipc implements the control channel between the lightbox CLI and
// the daemon: JSON-RPC over a Unix domain socket.
//
// The server side wraps a daemon instance and exposes queue management,
// status, source enqueueing, stack inspection, and log tailing operations.
// It owns the socket lifecycle (stale socket removal on start, cleanup on
// close). The client side provides typed wrappers for every operation.
//
// Request and response DTOs live in types.go; queue items cross the wire as
// api.QueueItem so the CLI renders exactly what the daemon computed.
package ipc
