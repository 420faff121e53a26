// Package logging provides a minimal logging interface and adapters for
// turtleherd.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the broker, supervisor and transports use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - HerdLogger with contextual helpers (component, entity, request) and
//     domain specific helpers for spawn/kill outcomes
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	b := broker.New(reg, sup, func(o *broker.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
