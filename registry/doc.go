// Package registry houses concrete implementations of core.Registry. The
// interface itself (and the Record struct) live in the core package to
// centralize domain contracts; keeping only implementations here prevents
// higher level packages (broker, façade) from depending on concrete
// storage.
//
// Add additional backends (replicated, persistent, etc.) alongside InMemory
// without changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package registry
