// Package wsbridge carries the spawn/kill channel pairs across the concert
// boundary over WebSocket. The Gateway exposes one endpoint per pair and
// answers each JSON request frame with exactly one correlated response
// frame; Client dials both endpoints and presents them as local channel
// pairs, so a hatchling client works identically in-process and remote.
//
// A mixed endpoint also carries both operation kinds on a single socket
// using the tagged Request/Response envelopes, for callers that prefer one
// connection.
package wsbridge
