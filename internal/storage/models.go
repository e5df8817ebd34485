package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Document represents an ingested policy document.
type Document struct {
	ID          int
	Name        string
	FilePath    string
	FileSize    int64
	Status      string // processing, completed, failed
	Summary     string
	UploadedAt  time.Time
	ProcessedAt *time.Time
}

// Document processing statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// QueryLog represents one answered query, persisted for auditability together
// with the raw evidence context and raw model output.
type QueryLog struct {
	ID               int
	DocumentID       *int
	Query            string
	Decision         string
	Amount           *string
	Justification    string
	ReferenceClauses []string
	RawContext       string
	RawResponse      string
	Timestamp        time.Time
}
