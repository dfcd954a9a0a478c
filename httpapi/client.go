package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.Dispatcher = (*Client)(nil)

// Client implements [parley.Dispatcher] against the audit backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	chatTimeout   time.Duration
	uploadTimeout time.Duration
	mockDelay     time.Duration
	agentType     string
	logger        *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Useful for testing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeouts overrides the per-call chat and upload timeouts.
func WithTimeouts(chat, upload time.Duration) Option {
	return func(c *Client) {
		c.chatTimeout = chat
		c.uploadTimeout = upload
	}
}

// WithMockDelay overrides the artificial latency of the offline/demo
// model path. Tests set this to zero.
func WithMockDelay(d time.Duration) Option {
	return func(c *Client) { c.mockDelay = d }
}

// WithAgentType sets the agent_type sent on chat requests.
func WithAgentType(agent string) Option {
	return func(c *Client) { c.agentType = agent }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new backend [Client] with the given base URL and options.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		httpClient:    http.DefaultClient,
		chatTimeout:   defaultChatTimeout,
		uploadTimeout: defaultUploadTimeout,
		mockDelay:     defaultMockDelay,
		agentType:     defaultAgentType,
		logger:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SendText sends one text message to the chat endpoint. Transport
// failures never surface as errors; they resolve to a fallback Result
// tagged ModelErrorFallback so the conversation always has something to
// display.
func (c *Client) SendText(ctx context.Context, req parley.TextRequest) (parley.Result, error) {
	if req.Model == parley.ModelMock {
		return c.mockResult(ctx, req.SessionID, mockChatReply(req.Body))
	}

	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	agent := req.AgentType
	if agent == "" {
		agent = c.agentType
	}
	body, err := json.Marshal(apiChatRequest{
		Message:   req.Body,
		ClientID:  req.Owner,
		SessionID: req.SessionID,
		ModelType: req.Model,
		AgentType: agent,
	})
	if err != nil {
		return c.fallback(req.SessionID, fmt.Errorf("encode request: %w", err)), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return c.fallback(req.SessionID, err), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, req.SessionID)
}

// SendFile uploads one document to the analysis endpoint. Same fallback
// contract as SendText, with a longer timeout for larger payloads.
func (c *Client) SendFile(ctx context.Context, req parley.FileRequest) (parley.Result, error) {
	if req.Model == parley.ModelMock {
		return c.mockResult(ctx, req.SessionID, mockFileReply(req.File.Name))
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", req.File.Name)
	if err != nil {
		return c.fallback(req.SessionID, err), nil
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return c.fallback(req.SessionID, err), nil
	}
	fields := map[string]string{
		"client_id":  req.Owner,
		"session_id": req.SessionID,
		"model_type": req.Model,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return c.fallback(req.SessionID, err), nil
		}
	}
	if err := w.Close(); err != nil {
		return c.fallback(req.SessionID, err), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
	if err != nil {
		return c.fallback(req.SessionID, err), nil
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(httpReq, req.SessionID)
}

// do executes the request and normalizes the response. Any failure
// resolves to the fallback result.
func (c *Client) do(httpReq *http.Request, sessionID string) (parley.Result, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.fallback(sessionID, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read a bounded amount of the body for the error text.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return c.fallback(sessionID, fmt.Errorf("backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))), nil
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return c.fallback(sessionID, fmt.Errorf("decode response: %w", err)), nil
	}

	sid := api.SessionID
	if sid == "" {
		sid = sessionID
	}
	return parley.Result{
		Text:      api.Message,
		SessionID: sid,
		ModelUsed: api.ModelUsed,
	}, nil
}

// fallback builds the degraded-mode result. The caller keeps its
// session id, or gets a fresh one if none existed yet.
func (c *Client) fallback(sessionID string, cause error) parley.Result {
	c.logger.Warn("dispatch failed, returning fallback", zap.Error(cause))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return parley.Result{
		Text:      fmt.Sprintf("Lo siento, ha ocurrido un error al procesar tu solicitud: %v", cause),
		SessionID: sessionID,
		ModelUsed: parley.ModelErrorFallback,
	}
}

// mockResult returns the canned offline/demo reply after the artificial
// delay. No network call is made on this path.
func (c *Client) mockResult(ctx context.Context, sessionID, text string) (parley.Result, error) {
	select {
	case <-time.After(c.mockDelay):
	case <-ctx.Done():
		return c.fallback(sessionID, ctx.Err()), nil
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return parley.Result{
		Text:      text,
		SessionID: sessionID,
		ModelUsed: parley.ModelMock,
	}, nil
}

func mockChatReply(body string) string {
	return fmt.Sprintf("Modo demostración: he recibido tu mensaje (%d caracteres). "+
		"Conecta un backend para obtener respuestas reales de auditoría.", len(body))
}

func mockFileReply(name string) string {
	return fmt.Sprintf("Modo demostración: he recibido el documento %q y lo incluiré en el análisis de auditoría.", name)
}
