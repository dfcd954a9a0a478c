package parley

import "sort"

// Store is an ordered, deduplicated in-memory message list. It is the
// single integration point for optimistic local inserts, synchronous
// dispatch results and asynchronous push events: all writers go through
// Merge, which is idempotent on message id.
//
// Store is not safe for concurrent use; the Reconciler serializes all
// access for a given view instance.
type Store struct {
	msgs []Message
	ids  map[string]struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// Merge inserts the candidate message unless a message with the same id
// is already present, then re-sorts by creation time. The sort is
// stable, so messages sharing a timestamp keep their insertion order.
// It reports whether the message was inserted.
func (s *Store) Merge(msg Message) bool {
	if _, ok := s.ids[msg.ID()]; ok {
		return false
	}
	s.ids[msg.ID()] = struct{}{}
	s.msgs = append(s.msgs, msg)
	sort.SliceStable(s.msgs, func(i, j int) bool {
		return s.msgs[i].CreatedAt().Before(s.msgs[j].CreatedAt())
	})
	return true
}

// Remove deletes the message with the given id, if present. Used to
// retire interim markers. It reports whether a message was removed.
func (s *Store) Remove(id string) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	for i, m := range s.msgs {
		if m.ID() == id {
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			break
		}
	}
	return true
}

// Messages returns a copy of the current ordered list.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of messages in the store.
func (s *Store) Len() int { return len(s.msgs) }

// Clear discards all messages. Used when a new conversation starts.
func (s *Store) Clear() {
	s.msgs = nil
	s.ids = make(map[string]struct{})
}
