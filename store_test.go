package parley_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
)

func textAt(id string, at time.Time) parley.TextMessage {
	return parley.TextMessage{MsgID: id, Owner: "u1", From: parley.RoleClient, Body: "m-" + id, SentAt: at}
}

func TestStore_MergeIdempotent(t *testing.T) {
	t.Parallel()
	s := parley.NewStore()
	msg := textAt("a", time.Now())

	assert.True(t, s.Merge(msg))
	assert.False(t, s.Merge(msg))

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID())
}

func TestStore_MergeSameIDDifferentContent(t *testing.T) {
	t.Parallel()
	s := parley.NewStore()
	first := textAt("a", time.Now())
	second := first
	second.Body = "changed"

	assert.True(t, s.Merge(first))
	assert.False(t, s.Merge(second))

	got := s.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, first, got[0])
}

func TestStore_OrderingByCreatedAt(t *testing.T) {
	t.Parallel()
	base := time.Now()
	t1 := base.Add(1 * time.Second)
	t2 := base.Add(2 * time.Second)
	t3 := base.Add(3 * time.Second)

	s := parley.NewStore()
	// Arbitrary arrival order.
	s.Merge(textAt("m3", t3))
	s.Merge(textAt("m1", t1))
	s.Merge(textAt("m2", t2))

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].ID())
	assert.Equal(t, "m2", got[1].ID())
	assert.Equal(t, "m3", got[2].ID())
}

func TestStore_StableOrderOnEqualTimestamps(t *testing.T) {
	t.Parallel()
	at := time.Now()
	s := parley.NewStore()
	s.Merge(textAt("first", at))
	s.Merge(textAt("second", at))
	s.Merge(textAt("third", at))

	got := s.Messages()
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ID())
	assert.Equal(t, "second", got[1].ID())
	assert.Equal(t, "third", got[2].ID())
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()
	s := parley.NewStore()
	s.Merge(textAt("a", time.Now()))
	s.Merge(textAt("b", time.Now().Add(time.Second)))

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 1, s.Len())

	// A removed id can be merged again.
	assert.True(t, s.Merge(textAt("a", time.Now())))
}

func TestStore_MessagesReturnsCopy(t *testing.T) {
	t.Parallel()
	s := parley.NewStore()
	s.Merge(textAt("a", time.Now()))

	got := s.Messages()
	got[0] = textAt("tampered", time.Now())

	assert.Equal(t, "a", s.Messages()[0].ID())
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()
	s := parley.NewStore()
	s.Merge(textAt("a", time.Now()))
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Merge(textAt("a", time.Now())))
}
