package parley

import "time"

// Message is a sealed interface representing a conversation message.
// The unexported marker method prevents external implementations.
// Every variant carries a unique id, an owner, a sender role and a
// creation timestamp; the Store relies on ID() for deduplication and
// on CreatedAt() for ordering.
type Message interface {
	isMessage()
	ID() string
	Sender() Role
	CreatedAt() time.Time
}

// TextMessage is a plain conversational message from the client, the
// assistant or the internal supervisor reviewer.
type TextMessage struct {
	MsgID  string
	Owner  string
	From   Role
	Body   string
	Model  string // backend model that produced an assistant message; empty otherwise
	SentAt time.Time
}

func (TextMessage) isMessage() {}

// ID returns the message identifier.
func (m TextMessage) ID() string { return m.MsgID }

// Sender returns the originating role.
func (m TextMessage) Sender() Role { return m.From }

// CreatedAt returns the creation timestamp.
func (m TextMessage) CreatedAt() time.Time { return m.SentAt }

// Notice is a transient out-of-band system message, used as an interim
// marker while a file is being processed. Notices are always removed or
// replaced once the action they announce resolves.
type Notice struct {
	MsgID  string
	Owner  string
	Body   string
	SentAt time.Time
}

func (Notice) isMessage() {}

// ID returns the message identifier.
func (m Notice) ID() string { return m.MsgID }

// Sender returns RoleSystem.
func (Notice) Sender() Role { return RoleSystem }

// CreatedAt returns the creation timestamp.
func (m Notice) CreatedAt() time.Time { return m.SentAt }

// Attachment describes an uploaded document.
type Attachment struct {
	FileName string
	FileURL  string
	FileType string
}

// FileMessage is a message whose payload is an uploaded document.
// Body may be empty; the attachment carries the payload.
type FileMessage struct {
	MsgID  string
	Owner  string
	From   Role
	Body   string
	File   Attachment
	SentAt time.Time
}

func (FileMessage) isMessage() {}

// ID returns the message identifier.
func (m FileMessage) ID() string { return m.MsgID }

// Sender returns the originating role.
func (m FileMessage) Sender() Role { return m.From }

// CreatedAt returns the creation timestamp.
func (m FileMessage) CreatedAt() time.Time { return m.SentAt }

// ErrorMessage is a visible assistant-role message explaining a failed
// exchange. Cause holds the underlying error text. Error messages are
// always tagged ModelErrorFallback so a UI can distinguish degraded
// replies from real ones.
type ErrorMessage struct {
	MsgID  string
	Owner  string
	Body   string
	Cause  string
	SentAt time.Time
}

func (ErrorMessage) isMessage() {}

// ID returns the message identifier.
func (m ErrorMessage) ID() string { return m.MsgID }

// Sender returns RoleAssistant. Failures surface in the conversation as
// assistant replies, never as silent state.
func (ErrorMessage) Sender() Role { return RoleAssistant }

// CreatedAt returns the creation timestamp.
func (m ErrorMessage) CreatedAt() time.Time { return m.SentAt }

// Model returns ModelErrorFallback.
func (ErrorMessage) Model() string { return ModelErrorFallback }

// Interface compliance checks.
var (
	_ Message = TextMessage{}
	_ Message = Notice{}
	_ Message = FileMessage{}
	_ Message = ErrorMessage{}
)
