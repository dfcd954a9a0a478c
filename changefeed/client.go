package changefeed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/parleyhq/parley"
)

// Interface compliance checks.
var (
	_ parley.Listener       = (*Client)(nil)
	_ parley.HistoryFetcher = (*Client)(nil)
)

// Client consumes the backend change feed. The connection is owned by
// the Client: Subscribe acquires it, Close releases it. There is no
// shared process-wide handle.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu     sync.Mutex
	body   io.Closer // active feed body, nil when not subscribed
	closed bool
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Useful for testing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a change feed [Client] with the given base URL and options.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe opens the owner-scoped feed and delivers each inserted
// message to sink until ctx is cancelled, the Client is closed, or the
// feed fails. A missing messages table is reported as an error wrapping
// [parley.ErrRelationMissing].
func (c *Client) Subscribe(ctx context.Context, owner string, sink func(parley.Message)) error {
	feedURL := c.baseURL + feedPath + "?owner=" + url.QueryEscape(owner)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fmt.Errorf("changefeed: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("changefeed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return parseHTTPError(resp)
	}

	if err := c.adopt(resp.Body); err != nil {
		resp.Body.Close()
		return err
	}
	defer c.release()

	c.logger.Debug("change feed subscribed", zap.String("owner", owner))
	return c.consume(ctx, resp.Body, sink)
}

// consume reads SSE frames from the feed body and dispatches insert
// events to sink. An error event carrying the undefined-relation code
// terminates the subscription with ErrRelationMissing.
func (c *Client) consume(ctx context.Context, body io.Reader, sink func(parley.Message)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var event string
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Text()
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "insert":
				msg, err := decodeRow([]byte(data))
				if err != nil {
					c.logger.Warn("skipping undecodable feed row", zap.Error(err))
					continue
				}
				sink(msg)
			case "error":
				var fe feedError
				if err := json.Unmarshal([]byte(data), &fe); err != nil {
					return fmt.Errorf("changefeed: malformed error event: %w", err)
				}
				if fe.Code == pgUndefinedRelation {
					return fmt.Errorf("changefeed: %s: %w", fe.Message, parley.ErrRelationMissing)
				}
				return fmt.Errorf("changefeed: feed error %s: %s", fe.Code, fe.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isClosed() {
			return parley.ErrListenerClosed
		}
		return fmt.Errorf("changefeed: %w", err)
	}
	// Server closed the feed cleanly.
	return nil
}

// History loads the owner's prior messages, oldest first.
func (c *Client) History(ctx context.Context, owner string) ([]parley.Message, error) {
	histURL := c.baseURL + historyPath + "?owner=" + url.QueryEscape(owner)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, histURL, nil)
	if err != nil {
		return nil, fmt.Errorf("changefeed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("changefeed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp)
	}

	var rows []row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("changefeed: decode history: %w", err)
	}
	msgs := make([]parley.Message, len(rows))
	for i, r := range rows {
		msgs[i] = r.message()
	}
	return msgs, nil
}

// Close releases the active feed connection, if any. Safe to call more
// than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.body != nil {
		err := c.body.Close()
		c.body = nil
		return err
	}
	return nil
}

func (c *Client) adopt(body io.Closer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return parley.ErrListenerClosed
	}
	c.body = body
	return nil
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.body != nil {
		c.body.Close()
		c.body = nil
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// parseHTTPError maps a non-success response to an error, recognizing
// the undefined-relation code in a JSON error body.
func parseHTTPError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var fe feedError
	if err := json.Unmarshal(b, &fe); err == nil && fe.Code == pgUndefinedRelation {
		return fmt.Errorf("changefeed: %s: %w", fe.Message, parley.ErrRelationMissing)
	}
	return fmt.Errorf("changefeed: backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
