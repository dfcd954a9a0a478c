package parley

// Event is a sealed interface representing a state change emitted by
// the Reconciler. Events are purely semantic notifications for a UI;
// the authoritative state is always read back through the Reconciler's
// accessors. The unexported marker method prevents external
// implementations.
type Event interface {
	event()
}

// EventMerged signals that a message entered the store, from any origin.
type EventMerged struct {
	Message Message
}

func (EventMerged) event() {}

// EventLoading signals a change of the input-gating loading flag.
type EventLoading struct {
	Active bool
}

func (EventLoading) event() {}

// EventError signals a transient error suitable for banner display.
// The message list itself already carries the durable explanation.
type EventError struct {
	Err error
}

func (EventError) event() {}

// EventSessionAdopted signals that a server-assigned session id
// replaced the client-generated one.
type EventSessionAdopted struct {
	SessionID string
}

func (EventSessionAdopted) event() {}

// EventDegraded signals that a backend integration was disabled for the
// rest of the session, typically because the message table is missing.
type EventDegraded struct {
	Reason error
}

func (EventDegraded) event() {}

// Interface compliance checks.
var (
	_ Event = EventMerged{}
	_ Event = EventLoading{}
	_ Event = EventError{}
	_ Event = EventSessionAdopted{}
	_ Event = EventDegraded{}
)
