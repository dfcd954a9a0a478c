// Package changefeed implements [parley.Listener] and
// [parley.HistoryFetcher] over the backend's database change feed.
//
// The feed is consumed as a server-sent event stream of row inserts on
// the messages table, filtered by owner. A missing table (Postgres
// "undefined relation", code 42P01) is a recognized condition: it is
// reported as [parley.ErrRelationMissing] so the caller can degrade to
// memory-only mode instead of retrying for the rest of the session.
package changefeed

import (
	"encoding/json"
	"time"

	"github.com/parleyhq/parley"
)

const (
	feedPath    = "/realtime/messages"
	historyPath = "/messages"

	// pgUndefinedRelation is the Postgres error code for a query against
	// a table that does not exist.
	pgUndefinedRelation = "42P01"
)

// row is the wire shape of one messages-table record. Optional columns
// are pointers; decode normalizes them into the tagged message variants.
type row struct {
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

// feedError is the wire shape of an error event on the feed, and of an
// error body on the history endpoint.
type feedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeRow converts a raw row into the matching message variant.
func decodeRow(data []byte) (parley.Message, error) {
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return r.message(), nil
}

// message maps a row to its tagged variant: attachment rows become
// FileMessages, system rows become Notices, error-fallback rows become
// ErrorMessages, everything else is a plain TextMessage.
func (r row) message() parley.Message {
	if r.FileName != nil {
		att := parley.Attachment{FileName: *r.FileName}
		if r.FileURL != nil {
			att.FileURL = *r.FileURL
		}
		if r.FileType != nil {
			att.FileType = *r.FileType
		}
		return parley.FileMessage{
			MsgID:  r.ID,
			Owner:  r.ClientID,
			From:   parley.Role(r.Sender),
			Body:   r.Content,
			File:   att,
			SentAt: r.CreatedAt,
		}
	}
	if parley.Role(r.Sender) == parley.RoleSystem {
		return parley.Notice{
			MsgID:  r.ID,
			Owner:  r.ClientID,
			Body:   r.Content,
			SentAt: r.CreatedAt,
		}
	}
	if r.ModelUsed != nil && *r.ModelUsed == parley.ModelErrorFallback {
		return parley.ErrorMessage{
			MsgID:  r.ID,
			Owner:  r.ClientID,
			Body:   r.Content,
			SentAt: r.CreatedAt,
		}
	}
	model := ""
	if r.ModelUsed != nil {
		model = *r.ModelUsed
	}
	return parley.TextMessage{
		MsgID:  r.ID,
		Owner:  r.ClientID,
		From:   parley.Role(r.Sender),
		Body:   r.Content,
		Model:  model,
		SentAt: r.CreatedAt,
	}
}
