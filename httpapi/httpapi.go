// Package httpapi implements [parley.Dispatcher] for the audit backend
// REST API.
//
// The client owns the fallback policy for the whole system: transport
// failures (timeout, connection error, non-success status) are absorbed
// here and returned as a [parley.Result] tagged ModelErrorFallback, so
// callers never branch on transport details. Exactly one attempt is
// made per invocation.
package httpapi

import "time"

const (
	chatPath   = "/api/chat"
	uploadPath = "/api/upload"

	defaultChatTimeout   = 15 * time.Second
	defaultUploadTimeout = 30 * time.Second

	// defaultMockDelay simulates backend latency on the offline/demo
	// path so the UX matches the networked one.
	defaultMockDelay = 600 * time.Millisecond

	defaultAgentType = "auditor"
)

// apiChatRequest is the JSON body sent to the chat endpoint.
type apiChatRequest struct {
	Message   string `json:"message"`
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id,omitempty"`
	ModelType string `json:"model_type"`
	AgentType string `json:"agent_type"`
}

// apiResponse is the JSON body returned by both endpoints.
type apiResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	ModelUsed string `json:"model_used"`
}
