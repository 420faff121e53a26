// Package hatchling implements the client side of the spawn/kill channel
// pairs: it mints correlation tokens, routes responses back to the waiting
// caller, and enforces the caller-side timeout the broker itself does not
// need. The name comes from the concert client role that hatches itself
// onto the simulation by spawning under its own name.
package hatchling
