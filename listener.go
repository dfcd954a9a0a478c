package parley

import "context"

// Listener surfaces messages this process did not itself create, such
// as a reply pushed for another device or an agent-originated insert.
//
// Subscribe delivers each new message to sink until ctx is cancelled,
// the listener is closed, or the feed fails. Sink is only ever handed
// individual messages; listeners never mutate a message list directly.
// Implementations must return an error wrapping ErrRelationMissing when
// the backing table does not exist, so the caller can degrade to
// memory-only mode instead of retrying.
//
// Close releases the underlying connection. A Listener owns its
// connection resource explicitly; there is no process-wide shared
// handle. Close is safe to call more than once.
type Listener interface {
	Subscribe(ctx context.Context, owner string, sink func(Message)) error
	Close() error
}

// HistoryFetcher loads a user's prior messages once, at startup.
// Implementations return an error wrapping ErrRelationMissing when the
// backing table does not exist.
type HistoryFetcher interface {
	History(ctx context.Context, owner string) ([]Message, error)
}
