package core

import "github.com/google/uuid"

// Status classifies the outcome of a spawn or kill request. It travels on
// the wire, so values are stable lowercase identifiers rather than numeric
// codes.
type Status string

const (
	// StatusOK signals successful completion.
	StatusOK Status = "ok"
	// StatusNameInUse signals a spawn whose explicit name is already live
	// or reserved.
	StatusNameInUse Status = "name_in_use"
	// StatusCreationFailed signals that the simulation surface rejected the
	// create call; the allocated name has been rolled back.
	StatusCreationFailed Status = "creation_failed"
	// StatusNotFound signals a kill naming an entity that is not live.
	StatusNotFound Status = "not_found"
	// StatusDestructionFailed signals that the surface rejected the destroy
	// call; the entity remains live and a later retry may succeed.
	StatusDestructionFailed Status = "destruction_failed"
	// StatusInvalidPayload signals a request rejected before any registry or
	// surface call was made.
	StatusInvalidPayload Status = "invalid_payload"
)

// SpawnRequest asks the broker to bring a new named entity to life.
// Name is optional; when empty the registry generates a fresh one. When
// AllowAlias is set a taken explicit name is suffixed instead of rejected,
// and the response carries the aliased name.
type SpawnRequest struct {
	RequestID  string      `json:"request_id"`
	Name       string      `json:"requested_name,omitempty"`
	AllowAlias bool        `json:"allow_alias,omitempty"`
	Params     SpawnParams `json:"spawn_parameters,omitempty"`
}

// SpawnResponse is the single correlated answer to a SpawnRequest. Name is
// populated only on StatusOK.
type SpawnResponse struct {
	RequestID string `json:"request_id"`
	Status    Status `json:"status"`
	Name      string `json:"name,omitempty"`
}

// KillRequest asks the broker to destroy the named live entity.
type KillRequest struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
}

// KillResponse is the single correlated answer to a KillRequest.
type KillResponse struct {
	RequestID string `json:"request_id"`
	Status    Status `json:"status"`
}

// RequestKind discriminates the Request tagged union.
type RequestKind string

const (
	// KindSpawn marks a Request carrying a SpawnRequest.
	KindSpawn RequestKind = "spawn"
	// KindKill marks a Request carrying a KillRequest.
	KindKill RequestKind = "kill"
)

// Request is the tagged variant used where both operation kinds travel over
// a single channel (e.g. the websocket bridge envelope). Exactly one of
// Spawn / Kill is non-nil, matching Kind.
type Request struct {
	Kind  RequestKind   `json:"kind"`
	Spawn *SpawnRequest `json:"spawn,omitempty"`
	Kill  *KillRequest  `json:"kill,omitempty"`
}

// ID returns the correlation token of the wrapped request, or "" when the
// union is malformed.
func (r Request) ID() string {
	switch r.Kind {
	case KindSpawn:
		if r.Spawn != nil {
			return r.Spawn.RequestID
		}
	case KindKill:
		if r.Kill != nil {
			return r.Kill.RequestID
		}
	}
	return ""
}

// Response is the tagged variant paired with Request where both operation
// kinds share one channel. Exactly one of Spawn / Kill is non-nil,
// matching Kind.
type Response struct {
	Kind  RequestKind    `json:"kind"`
	Spawn *SpawnResponse `json:"spawn,omitempty"`
	Kill  *KillResponse  `json:"kill,omitempty"`
}

// ID returns the correlation token of the wrapped response, or "" when the
// union is malformed.
func (r Response) ID() string {
	switch r.Kind {
	case KindSpawn:
		if r.Spawn != nil {
			return r.Spawn.RequestID
		}
	case KindKill:
		if r.Kill != nil {
			return r.Kill.RequestID
		}
	}
	return ""
}

// NewID generates a new correlation token. Tokens are minted by callers
// (clients) so a response can be matched to its originating request even
// when the transport itself offers no correlation guarantee.
func NewID() string { return uuid.NewString() }
