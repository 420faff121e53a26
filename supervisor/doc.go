// Package supervisor owns the lifecycle calls against the underlying
// simulation surface. It is the only layer that causes externally
// observable simulation state changes; everything above it manipulates
// names and records.
package supervisor
