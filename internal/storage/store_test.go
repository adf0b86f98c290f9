package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveStoresUnderUniqueName(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := s.Save("lyrics.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	second, err := s.Save("lyrics.pdf", strings.NewReader("%PDF-1.4 other"))
	require.NoError(t, err)

	assert.Equal(t, "lyrics.pdf", first.FileName)
	assert.NotEqual(t, first.StoredFileName, second.StoredFileName)
	assert.Equal(t, ".pdf", filepath.Ext(first.StoredFileName))

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
	assert.Equal(t, int64(len(data)), first.Size)
}

func TestSaveSniffsContentType(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// PNG magic bytes with a misleading extension: the sniffed type wins.
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	stored, err := s.Save("photo.pdf", strings.NewReader(string(png)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.MimeType)
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
