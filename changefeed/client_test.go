package changefeed_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/changefeed"
)

func sseHandler(t *testing.T, wantOwner string, frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/realtime/messages", r.URL.Path)
		require.Equal(t, wantOwner, r.URL.Query().Get("owner"))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			fmt.Fprint(w, f)
		}
	}
}

func TestClient_Subscribe_DeliversInserts(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(sseHandler(t, "u1",
		"event: insert\n",
		`data: {"id":"m1","client_id":"u1","sender":"assistant","content":"hola","created_at":"2026-01-02T10:00:00Z","model_used":"gpt4"}`+"\n",
		"\n",
		"event: insert\n",
		`data: {"id":"m2","client_id":"u1","sender":"system","content":"Procesando…","created_at":"2026-01-02T10:00:01Z"}`+"\n",
		"\n",
		"event: insert\n",
		`data: {"id":"m3","client_id":"u1","sender":"client","content":"","created_at":"2026-01-02T10:00:02Z","file_name":"balance.pdf","file_url":"https://x/balance.pdf","file_type":"application/pdf"}`+"\n",
		"\n",
	))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	defer c.Close()

	var got []parley.Message
	err := c.Subscribe(context.Background(), "u1", func(m parley.Message) { got = append(got, m) })
	require.NoError(t, err)
	require.Len(t, got, 3)

	text, ok := got[0].(parley.TextMessage)
	require.True(t, ok)
	assert.Equal(t, parley.RoleAssistant, text.From)
	assert.Equal(t, "gpt4", text.Model)

	_, ok = got[1].(parley.Notice)
	assert.True(t, ok)

	file, ok := got[2].(parley.FileMessage)
	require.True(t, ok)
	assert.Equal(t, "balance.pdf", file.File.FileName)
	assert.Equal(t, "application/pdf", file.File.FileType)
}

func TestClient_Subscribe_ErrorFallbackRowsBecomeErrorMessages(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(sseHandler(t, "u1",
		"event: insert\n",
		`data: {"id":"m1","client_id":"u1","sender":"assistant","content":"Lo siento","created_at":"2026-01-02T10:00:00Z","model_used":"error_fallback"}`+"\n",
		"\n",
	))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	defer c.Close()

	var got []parley.Message
	require.NoError(t, c.Subscribe(context.Background(), "u1", func(m parley.Message) { got = append(got, m) }))
	require.Len(t, got, 1)
	_, ok := got[0].(parley.ErrorMessage)
	assert.True(t, ok)
}

func TestClient_Subscribe_UndefinedRelation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(sseHandler(t, "u1",
		"event: error\n",
		`data: {"code":"42P01","message":"relation \"messages\" does not exist"}`+"\n",
		"\n",
	))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	defer c.Close()

	err := c.Subscribe(context.Background(), "u1", func(parley.Message) {
		t.Fatal("no message expected")
	})
	assert.ErrorIs(t, err, parley.ErrRelationMissing)
}

func TestClient_Subscribe_SkipsMalformedRows(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(sseHandler(t, "u1",
		"event: insert\n",
		"data: not-json\n",
		"\n",
		"event: insert\n",
		`data: {"id":"m1","client_id":"u1","sender":"client","content":"hola","created_at":"2026-01-02T10:00:00Z"}`+"\n",
		"\n",
	))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	defer c.Close()

	var got []parley.Message
	require.NoError(t, c.Subscribe(context.Background(), "u1", func(m parley.Message) { got = append(got, m) }))
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID())
}

func TestClient_Subscribe_AfterCloseReturnsClosed(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(sseHandler(t, "u1"))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	require.NoError(t, c.Close())

	err := c.Subscribe(context.Background(), "u1", func(parley.Message) {})
	assert.ErrorIs(t, err, parley.ErrListenerClosed)
}

func TestClient_Subscribe_ContextCancel(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := changefeed.New(srv.URL)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Subscribe(ctx, "u1", func(parley.Message) {})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestClient_History(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "u1", r.URL.Query().Get("owner"))
		fmt.Fprint(w, `[
			{"id":"m1","client_id":"u1","sender":"client","content":"hola","created_at":"2026-01-02T10:00:00Z"},
			{"id":"m2","client_id":"u1","sender":"assistant","content":"buenos días","created_at":"2026-01-02T10:00:05Z","model_used":"gpt4"}
		]`)
	}))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	msgs, err := c.History(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID())
	assert.Equal(t, parley.RoleAssistant, msgs[1].Sender())
}

func TestClient_History_UndefinedRelation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":"42P01","message":"relation \"messages\" does not exist"}`)
	}))
	defer srv.Close()

	c := changefeed.New(srv.URL)
	_, err := c.History(context.Background(), "u1")
	assert.ErrorIs(t, err, parley.ErrRelationMissing)
}
