package parley

import (
	"time"

	"github.com/google/uuid"
)

// Session scopes one continuous conversation. The id is generated
// client-side at first use and replaced by the server-assigned id once
// a dispatch response carries one. Sessions are never explicitly
// closed; starting a new conversation simply discards the old id.
type Session struct {
	ID        string
	Owner     string
	CreatedAt time.Time
}

// NewSession creates a session with a client-generated id.
func NewSession(owner string) Session {
	return Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: time.Now(),
	}
}
