package domain

import "time"

// Document is the single active artifact of a broadcast scope. The stored
// file name is an opaque reference viewers resolve through the static
// /uploads path; the extracted text is opaque to the coordinator.
type Document struct {
	FileName       string    `json:"fileName"`
	StoredFileName string    `json:"storedFileName"`
	FilePath       string    `json:"filePath,omitempty"`
	FileSize       int64     `json:"fileSize,omitempty"`
	MimeType       string    `json:"mimeType"`
	ExtractedText  string    `json:"extractedText"`
	Timestamp      time.Time `json:"timestamp"`
}

// Empty reports whether no document has been broadcast yet.
func (d Document) Empty() bool { return d.FileName == "" }
