package core

// Registry tracks the names of currently-live entities and arbitrates every
// mutation of that set. Implementations must make each method an atomic
// step: there is no window in which two concurrent requests can observe the
// same name as free, and at most one kill can claim a given entry.
//
// An entry moves through three phases, all transitions serialized by the
// implementation:
//
//	Allocate (reserved) -> Bind (live) -> Claim (kill in flight) -> Release
//
// A reservation counts as in-use for collision purposes but is not yet
// live: Exists reports false until Bind confirms the backing object. A
// claimed entry likewise reads as absent to concurrent kills; Unclaim
// restores it when destruction fails.
type Registry interface {
	// Allocate reserves a name. An empty requested name yields a generated
	// one (base + monotonic suffix) guaranteed not to collide with any live
	// or reserved name. An explicit name that is taken fails with
	// ErrNameInUse.
	Allocate(requested string) (string, error)

	// Bind promotes a reservation to a live record once the surface has
	// confirmed creation. Binding a name that was never reserved fails with
	// ErrNotFound.
	Bind(name string, handle Handle, params SpawnParams) error

	// Claim atomically checks liveness and marks the entry as having a kill
	// in flight, returning a copy of its record. A second concurrent Claim
	// for the same name observes ErrNotFound.
	Claim(name string) (*Record, error)

	// Unclaim restores a claimed entry to live after a failed destroy.
	Unclaim(name string) error

	// Release removes a claimed entry after confirmed destruction, or rolls
	// back a reservation that never got bound. Releasing an unknown name
	// fails with ErrNotFound.
	Release(name string) error

	// Exists is a point-in-time membership check over live entries only.
	// Diagnostics use it freely; mutating decisions never do, since
	// mutation always goes through Allocate/Claim/Release.
	Exists(name string) bool

	// Names returns a snapshot of all live names.
	Names() []string

	// Len returns the number of live entries.
	Len() int
}
