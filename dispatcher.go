package parley

import "context"

// Model sentinels recognized across the system.
const (
	// ModelMock is the offline/demo model. Dispatchers short-circuit the
	// network entirely for this model and return a canned reply.
	ModelMock = "mock"

	// ModelErrorFallback tags replies synthesized when the real backend
	// call failed. The conversation stays coherent; the tag tells the UI
	// the reply is degraded.
	ModelErrorFallback = "error_fallback"
)

// Result is the normalized outcome of one dispatch. Dispatcher
// implementations that own a fallback policy return a Result tagged
// ModelErrorFallback instead of an error when transport fails.
type Result struct {
	Text      string
	SessionID string
	ModelUsed string
}

// TextRequest carries one outbound text message.
type TextRequest struct {
	Body      string
	Owner     string
	SessionID string // empty on the first message of a conversation
	Model     string
	AgentType string
}

// FileRequest carries one outbound document upload.
type FileRequest struct {
	File      Upload
	Owner     string
	SessionID string
	Model     string
}

// Upload is the in-memory form of a document to analyze.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Dispatcher turns one outbound user action into exactly one backend
// call and produces a normalized Result. Exactly one attempt is made
// per invocation; retry policy, if any, belongs to the caller.
//
// The production implementation (httpapi.Client) absorbs transport
// failures into a fallback Result and returns a nil error; the error
// return exists so test doubles and future implementations can signal
// faults, which the Reconciler converts into a visible error message.
type Dispatcher interface {
	SendText(ctx context.Context, req TextRequest) (Result, error)
	SendFile(ctx context.Context, req FileRequest) (Result, error)
}
