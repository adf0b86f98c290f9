package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPDFTextRejectsOtherTypes(t *testing.T) {
	var e PDFText
	_, err := e.Text("whatever.png", "image/png")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = e.Text("whatever.txt", "text/plain")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPDFTextFailsOnMissingFile(t *testing.T) {
	var e PDFText
	_, err := e.Text("does/not/exist.pdf", "application/pdf")
	assert.Error(t, err)
}

func TestPlaceholderKeepsReason(t *testing.T) {
	got := Placeholder(errors.New("OCR processing timeout"))
	assert.Equal(t, "Text extraction failed: OCR processing timeout", got)
}
