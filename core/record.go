package core

import "time"

// Handle is an opaque reference to an entity's underlying simulation
// object. It is issued by a Surface on Create and consumed exactly once by
// Destroy; nothing above the Supervisor interprets its contents.
type Handle string

// SpawnParams is the opaque configuration blob accompanying a spawn request
// (position, color, and whatever else a surface understands). The broker
// and registry never look inside it.
type SpawnParams map[string]any

// Clone returns a shallow copy so stored records cannot be mutated through
// a caller-retained map.
func (p SpawnParams) Clone() SpawnParams {
	if p == nil {
		return nil
	}
	cp := make(SpawnParams, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Record is the registry's view of one live entity. It is created when the
// surface confirms creation (Bind) and removed when destruction is
// confirmed (Release). The registry owns records exclusively; callers
// receive copies.
type Record struct {
	Name    string
	Params  SpawnParams
	Handle  Handle
	Created time.Time
}
