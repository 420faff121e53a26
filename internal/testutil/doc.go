// Package testutil contains helpers used across tests to reduce
// boilerplate when exercising the lifecycle pipeline: a scripted fake
// simulation surface with call accounting, forced failures and a
// synchronization gate for provoking races. These helpers are intentionally
// minimal and avoid adding third-party dependencies. They are not intended
// for production usage.
package testutil
