package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want string
	}{
		{"balance.pdf", "application/pdf"},
		{"LEDGER.CSV", "text/csv"},
		{"notes.txt", "text/plain"},
		{"readme.md", "text/plain"},
		{"dump.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, contentTypeFor(tt.path))
		})
	}
}

func TestReadUpload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "balance.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	u, err := readUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "balance.pdf", u.Name)
	assert.Equal(t, "application/pdf", u.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), u.Data)
}

func TestReadUpload_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := readUpload(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
