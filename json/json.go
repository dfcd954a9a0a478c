// Package json persists conversation transcripts as versioned JSON
// envelopes with a type discriminator per message variant.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parleyhq/parley"
)

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version   int          `json:"version"`
	SessionID string       `json:"session_id"`
	Owner     string       `json:"owner"`
	CreatedAt time.Time    `json:"created_at"`
	Messages  []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a Message with a type
// discriminator. Only the fields relevant to each variant are set.
type messageDTO struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	From      *string   `json:"from,omitempty"`
	Body      string    `json:"body"`
	Model     *string   `json:"model,omitempty"`
	Cause     *string   `json:"cause,omitempty"`
	FileName  *string   `json:"file_name,omitempty"`
	FileURL   *string   `json:"file_url,omitempty"`
	FileType  *string   `json:"file_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript couples a session with its ordered messages for
// persistence.
type Transcript struct {
	Session  parley.Session
	Messages []parley.Message
}

// Marshal serializes a Transcript to JSON in v1 envelope format.
func Marshal(t Transcript) ([]byte, error) {
	env := envelope{
		Version:   1,
		SessionID: t.Session.ID,
		Owner:     t.Session.Owner,
		CreatedAt: t.Session.CreatedAt,
		Messages:  make([]messageDTO, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a Transcript from JSON in v1 envelope format.
func Unmarshal(data []byte) (Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]parley.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return Transcript{
		Session: parley.Session{
			ID:        env.SessionID,
			Owner:     env.Owner,
			CreatedAt: env.CreatedAt,
		},
		Messages: msgs,
	}, nil
}

// Save writes a Transcript to a JSON file, creating parent directories
// as needed. The write is atomic (temp file plus rename).
func Save(path string, t Transcript) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read file: %w", err)
	}
	return Unmarshal(data)
}

func marshalMessage(msg parley.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case parley.TextMessage:
		from := string(m.From)
		dto := messageDTO{
			Type:      "text",
			ID:        m.MsgID,
			Owner:     m.Owner,
			From:      &from,
			Body:      m.Body,
			CreatedAt: m.SentAt,
		}
		if m.Model != "" {
			dto.Model = &m.Model
		}
		return dto, nil
	case parley.Notice:
		return messageDTO{
			Type:      "notice",
			ID:        m.MsgID,
			Owner:     m.Owner,
			Body:      m.Body,
			CreatedAt: m.SentAt,
		}, nil
	case parley.FileMessage:
		from := string(m.From)
		dto := messageDTO{
			Type:      "file",
			ID:        m.MsgID,
			Owner:     m.Owner,
			From:      &from,
			Body:      m.Body,
			FileName:  &m.File.FileName,
			CreatedAt: m.SentAt,
		}
		if m.File.FileURL != "" {
			dto.FileURL = &m.File.FileURL
		}
		if m.File.FileType != "" {
			dto.FileType = &m.File.FileType
		}
		return dto, nil
	case parley.ErrorMessage:
		return messageDTO{
			Type:      "error",
			ID:        m.MsgID,
			Owner:     m.Owner,
			Body:      m.Body,
			Cause:     &m.Cause,
			CreatedAt: m.SentAt,
		}, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T", msg)
	}
}

func unmarshalMessage(dto messageDTO) (parley.Message, error) {
	switch dto.Type {
	case "text":
		var from parley.Role
		if dto.From != nil {
			from = parley.Role(*dto.From)
		}
		var model string
		if dto.Model != nil {
			model = *dto.Model
		}
		return parley.TextMessage{
			MsgID:  dto.ID,
			Owner:  dto.Owner,
			From:   from,
			Body:   dto.Body,
			Model:  model,
			SentAt: dto.CreatedAt,
		}, nil
	case "notice":
		return parley.Notice{
			MsgID:  dto.ID,
			Owner:  dto.Owner,
			Body:   dto.Body,
			SentAt: dto.CreatedAt,
		}, nil
	case "file":
		var from parley.Role
		if dto.From != nil {
			from = parley.Role(*dto.From)
		}
		att := parley.Attachment{}
		if dto.FileName != nil {
			att.FileName = *dto.FileName
		}
		if dto.FileURL != nil {
			att.FileURL = *dto.FileURL
		}
		if dto.FileType != nil {
			att.FileType = *dto.FileType
		}
		return parley.FileMessage{
			MsgID:  dto.ID,
			Owner:  dto.Owner,
			From:   from,
			Body:   dto.Body,
			File:   att,
			SentAt: dto.CreatedAt,
		}, nil
	case "error":
		var cause string
		if dto.Cause != nil {
			cause = *dto.Cause
		}
		return parley.ErrorMessage{
			MsgID:  dto.ID,
			Owner:  dto.Owner,
			Body:   dto.Body,
			Cause:  cause,
			SentAt: dto.CreatedAt,
		}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", dto.Type)
	}
}
