// Package broker implements the request broker mediating spawn and kill
// requests against the registry and supervisor. Requests arrive on
// dedicated channels, each is handled as an independent unit of work, and
// every accepted request yields exactly one correlated response on the
// response channel statically paired with its arrival channel.
//
// The broker holds no name state of its own: the registry's atomic
// allocation/claim steps serialize racing operations on the same name,
// while operations on different names proceed concurrently up to the
// configured limit.
package broker
