// Package core provides the foundational domain types and interfaces shared
// by every layer of turtleherd. It defines the core abstractions for:
//
//   - Requests and responses (correlated spawn/kill message pairs)
//   - Records (the registry's view of a live entity)
//   - Registry (atomic name allocation and the per-name operation lock)
//   - Surface (the underlying simulation create/destroy calls)
//
// The package intentionally keeps implementation concerns (the in-memory
// registry, the broker loop, concrete surfaces, transports) out of scope,
// exposing small interfaces so custom backends can be wired in without
// touching calling code.
package core
