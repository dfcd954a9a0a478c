package parley_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parleyhq/parley"
)

func TestValidateSend(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		body    string
		file    *parley.Upload
		wantErr bool
	}{
		{"text only", "hola", nil, false},
		{"file only", "", &parley.Upload{Name: "doc.pdf"}, false},
		{"text and file", "analiza esto", &parley.Upload{Name: "doc.pdf"}, false},
		{"empty", "", nil, true},
		{"file without name", "", &parley.Upload{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parley.ValidateSend(tt.body, tt.file)
			if tt.wantErr {
				assert.ErrorIs(t, err, parley.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		msg     parley.Message
		wantErr bool
	}{
		{"client text", parley.TextMessage{From: parley.RoleClient}, false},
		{"assistant text", parley.TextMessage{From: parley.RoleAssistant}, false},
		{"supervisor text", parley.TextMessage{From: parley.RoleSupervisor}, false},
		{"system text rejected", parley.TextMessage{From: parley.RoleSystem}, true},
		{"notice", parley.Notice{Body: "Procesando…"}, false},
		{"empty notice", parley.Notice{}, true},
		{"client file", parley.FileMessage{From: parley.RoleClient, File: parley.Attachment{FileName: "a.pdf"}}, false},
		{"supervisor file rejected", parley.FileMessage{From: parley.RoleSupervisor, File: parley.Attachment{FileName: "a.pdf"}}, true},
		{"file without name", parley.FileMessage{From: parley.RoleClient}, true},
		{"error message", parley.ErrorMessage{Body: "Lo siento"}, false},
		{"empty error message", parley.ErrorMessage{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parley.ValidateMessage(tt.msg)
			if tt.wantErr {
				assert.ErrorIs(t, err, parley.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
