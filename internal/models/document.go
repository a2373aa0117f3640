// Package models defines the document record and ingestion data structures.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Document status values. StatusProcessing is transient: a completed pipeline
// run always leaves a record in StatusReady or StatusError.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusError      = "error"
)

// Processing limits shared by the pipeline and its callers.
const (
	// MaxFileSize is the per-file upload ceiling in bytes.
	MaxFileSize = 10 << 20
	// MinTextLengthForSuccess is the rune count extracted text must reach
	// for a record to be marked ready rather than error.
	MinTextLengthForSuccess = 40
	// MinTextLengthForGeneration is the rune count of trimmed text required
	// before the question-generation boundary accepts a document.
	MinTextLengthForGeneration = 120
	// SnippetLength is the preview snippet length in runes.
	SnippetLength = 160
)

// DocumentRecord is the unit of persistence: one uploaded document with its
// extracted text, derived metadata, and the original bytes as a data URL so
// the file can be downloaded or re-extracted without re-upload.
type DocumentRecord struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Category     string         `json:"category"`
	Extension    string         `json:"extension"`
	Size         int64          `json:"size"`
	UploadDate   time.Time      `json:"uploadDate"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Status       string         `json:"status"`
	TextContent  string         `json:"textContent"`
	TextSource   string         `json:"textSource"`
	Meta         map[string]any `json:"meta"`
	ErrorMessage string         `json:"errorMessage"`
	DataURL      string         `json:"dataUrl"`
}

// FileUpload describes an incoming file before any record exists for it.
type FileUpload struct {
	Name string
	Type string // declared MIME type, may be empty
	Size int64  // zero means "use len(Data)"
	Data []byte
}

// FileFailure reports one file that could not be ingested.
type FileFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestionReport summarizes one Submit batch.
type IngestionReport struct {
	Succeeded int           `json:"succeeded"`
	Failed    []FileFailure `json:"failed"`
}

// ExtensionOf returns the lowercase extension of name including the leading
// dot, or "" when name has none.
func ExtensionOf(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "." {
		return ""
	}
	return ext
}

// Normalize backfills fields on a record read from storage so that consumers
// always see a complete shape. Records written by older versions may lack
// extension, type, status, or timestamps; this is the single place those gaps
// are repaired. The record is not rewritten to storage until its next save.
func Normalize(rec *DocumentRecord) *DocumentRecord {
	if rec == nil {
		return nil
	}
	if rec.Extension == "" {
		rec.Extension = ExtensionOf(rec.Name)
	}
	if rec.Status == "" {
		switch {
		case rec.TextContent != "":
			rec.Status = StatusReady
		case rec.ErrorMessage != "":
			rec.Status = StatusError
		default:
			rec.Status = StatusProcessing
		}
	}
	if rec.UploadDate.IsZero() {
		rec.UploadDate = rec.UpdatedAt
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.UploadDate
	}
	if rec.Meta == nil {
		rec.Meta = map[string]any{}
	}
	return rec
}
