// Package wsfeed implements [parley.Listener] over a raw websocket
// channel. The gateway delivers the same event shape as the database
// change feed, keyed by client and session identifiers in the
// connection URL; the Reconciler's id-based deduplication makes both
// transports equally valid push origins.
//
// The connection is an explicitly owned resource: Subscribe acquires
// it, Close (or context cancellation) releases it. There is no shared
// process-wide socket handle.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.Listener = (*Client)(nil)

// event is the wire shape of one pushed message, mirroring the change
// feed's row format.
type event struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ModelUsed *string   `json:"model_used,omitempty"`
	FileName  *string   `json:"file_name,omitempty"`
	FileURL   *string   `json:"file_url,omitempty"`
	FileType  *string   `json:"file_type,omitempty"`
}

// Client consumes the raw socket channel.
type Client struct {
	gatewayURL string
	sessionID  string
	dialer     *websocket.Dialer
	logger     *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// Option configures a [Client].
type Option func(*Client)

// WithSessionID keys the connection URL with a session identifier.
func WithSessionID(id string) Option {
	return func(c *Client) { c.sessionID = id }
}

// WithDialer sets a custom websocket dialer. Useful for testing.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a socket channel [Client] for the given gateway URL
// (ws:// or wss://) and options.
func New(gatewayURL string, opts ...Option) *Client {
	c := &Client{
		gatewayURL: gatewayURL,
		dialer:     websocket.DefaultDialer,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe dials the gateway and delivers each pushed message to sink
// until ctx is cancelled, the Client is closed, or the connection
// fails.
func (c *Client) Subscribe(ctx context.Context, owner string, sink func(parley.Message)) error {
	q := url.Values{"client_id": {owner}}
	if c.sessionID != "" {
		q.Set("session_id", c.sessionID)
	}
	conn, _, err := c.dialer.DialContext(ctx, c.gatewayURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("wsfeed: dial: %w", err)
	}

	if err := c.adopt(conn); err != nil {
		conn.Close()
		return err
	}
	defer c.release()

	// Unblock the read loop when the context ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.logger.Debug("socket channel connected", zap.String("owner", owner))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.isClosed() {
				return parley.ErrListenerClosed
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// Gateway closed the channel cleanly.
				return nil
			}
			return fmt.Errorf("wsfeed: read: %w", err)
		}
		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("skipping undecodable socket event", zap.Error(err))
			continue
		}
		sink(ev.message())
	}
}

// Close releases the active connection, if any. Safe to call more than
// once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) adopt(conn *websocket.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return parley.ErrListenerClosed
	}
	c.conn = conn
	return nil
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// message maps a pushed event to its tagged variant, mirroring the
// change feed's normalization.
func (ev event) message() parley.Message {
	if ev.FileName != nil {
		att := parley.Attachment{FileName: *ev.FileName}
		if ev.FileURL != nil {
			att.FileURL = *ev.FileURL
		}
		if ev.FileType != nil {
			att.FileType = *ev.FileType
		}
		return parley.FileMessage{
			MsgID:  ev.ID,
			Owner:  ev.ClientID,
			From:   parley.Role(ev.Sender),
			Body:   ev.Content,
			File:   att,
			SentAt: ev.CreatedAt,
		}
	}
	if parley.Role(ev.Sender) == parley.RoleSystem {
		return parley.Notice{MsgID: ev.ID, Owner: ev.ClientID, Body: ev.Content, SentAt: ev.CreatedAt}
	}
	if ev.ModelUsed != nil && *ev.ModelUsed == parley.ModelErrorFallback {
		return parley.ErrorMessage{MsgID: ev.ID, Owner: ev.ClientID, Body: ev.Content, SentAt: ev.CreatedAt}
	}
	model := ""
	if ev.ModelUsed != nil {
		model = *ev.ModelUsed
	}
	return parley.TextMessage{
		MsgID:  ev.ID,
		Owner:  ev.ClientID,
		From:   parley.Role(ev.Sender),
		Body:   ev.Content,
		Model:  model,
		SentAt: ev.CreatedAt,
	}
}
