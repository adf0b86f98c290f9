// Package extract turns stored uploads into the text the viewers render.
// Only PDFs are parsed in-process; image OCR is an external concern, so
// anything else resolves to a readable placeholder instead of blocking the
// broadcast.
package extract

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

var ErrUnsupported = errors.New("unsupported media type")

// Extractor produces the text for a stored file.
type Extractor interface {
	Text(path, mimeType string) (string, error)
}

// PDFText extracts plain text from PDF files.
type PDFText struct{}

func (PDFText) Text(path, mimeType string) (string, error) {
	if mimeType != "application/pdf" {
		return "", ErrUnsupported
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	log.Info().Str("module", "extract").Str("file", path).Int("chars", len(text)).Msg("pdf text extracted")
	return text, nil
}

// Placeholder is the fallback text shipped when extraction fails: the
// broadcast still goes out, the viewers render the message as-is.
func Placeholder(err error) string {
	return "Text extraction failed: " + err.Error()
}
