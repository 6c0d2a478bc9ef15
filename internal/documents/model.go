package documents

import "time"

// Status is the document lifecycle state. Only ready rows ever persist;
// pending and failed exist for in-flight accounting and telemetry.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Document represents one encrypted file in a tenant's vault. StorageKey, IV
// and AuthTag travel together: all set once the encrypted blob exists, never
// partially. IV and AuthTag are stored base64-encoded.
type Document struct {
	ID            string
	TenantID      string
	FileName      string
	MimeType      string
	SizeBytes     int64
	StorageKey    string
	IV            string
	AuthTag       string
	Status        Status
	Provider      *string
	InvoiceNumber *string
	Currency      *string
	Amount        *float64
	IssueDate     *time.Time
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OCRRecord holds the extracted text and structured-extraction result for a
// document. Written once during ingestion, one-to-one with Document.
type OCRRecord struct {
	DocumentID string
	RawText    string
	Extraction map[string]any
	CreatedAt  time.Time
}
