package json_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	pjson "github.com/parleyhq/parley/json"
)

func sampleTranscript() pjson.Transcript {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return pjson.Transcript{
		Session: parley.Session{ID: "s1", Owner: "u1", CreatedAt: base},
		Messages: []parley.Message{
			parley.TextMessage{MsgID: "m1", Owner: "u1", From: parley.RoleClient, Body: "hola", SentAt: base},
			parley.TextMessage{MsgID: "m2", Owner: "u1", From: parley.RoleAssistant, Body: "buenos días", Model: "gpt4", SentAt: base.Add(time.Second)},
			parley.Notice{MsgID: "m3", Owner: "u1", Body: "Procesando tu documento…", SentAt: base.Add(2 * time.Second)},
			parley.FileMessage{
				MsgID: "m4", Owner: "u1", From: parley.RoleClient, Body: "el balance",
				File:   parley.Attachment{FileName: "balance.pdf", FileURL: "https://x/balance.pdf", FileType: "application/pdf"},
				SentAt: base.Add(3 * time.Second),
			},
			parley.ErrorMessage{MsgID: "m5", Owner: "u1", Body: "Lo siento", Cause: "timeout", SentAt: base.Add(4 * time.Second)},
		},
	}
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	t.Parallel()
	want := sampleTranscript()

	data, err := pjson.Marshal(want)
	require.NoError(t, err)

	got, err := pjson.Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, want.Session, got.Session)
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i], got.Messages[i], "message %d", i)
	}
}

func TestUnmarshal_RejectsUnknownVersion(t *testing.T) {
	t.Parallel()
	_, err := pjson.Unmarshal([]byte(`{"version":2,"session_id":"s1","messages":[]}`))
	assert.Error(t, err)
}

func TestUnmarshal_RejectsUnknownMessageType(t *testing.T) {
	t.Parallel()
	_, err := pjson.Unmarshal([]byte(`{"version":1,"session_id":"s1","messages":[{"type":"bogus","id":"m1"}]}`))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "transcript.json")
	want := sampleTranscript()

	require.NoError(t, pjson.Save(path, want))

	got, err := pjson.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want.Session.ID, got.Session.ID)
	assert.Len(t, got.Messages, len(want.Messages))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := pjson.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
