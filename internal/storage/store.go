// Package storage keeps uploaded files on local disk under unique stored
// names, so originals with the same name never collide.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StoredFile describes one saved upload. The stored name is the opaque
// reference viewers resolve through the static /uploads route.
type StoredFile struct {
	FileName       string
	StoredFileName string
	Path           string
	Size           int64
	MimeType       string
}

type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save writes the upload under a unique stored name and sniffs the real
// content type from the bytes, not the client-declared header.
func (s *Store) Save(originalName string, r io.Reader) (StoredFile, error) {
	stored := fmt.Sprintf("file-%d-%s%s",
		time.Now().UnixMilli(), uuid.NewString()[:8], filepath.Ext(originalName))
	path := filepath.Join(s.dir, stored)

	dst, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create %s: %w", stored, err)
	}
	size, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("write %s: %w", stored, err)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("detect mime of %s: %w", stored, err)
	}

	log.Info().Str("module", "storage").Str("file", originalName).
		Str("stored", stored).Int64("size", size).Str("mime", mime.String()).Msg("file stored")

	return StoredFile{
		FileName:       originalName,
		StoredFileName: stored,
		Path:           path,
		Size:           size,
		MimeType:       mime.String(),
	}, nil
}
