package documents

import "context"

// ListParams narrows and pages a tenant's document listing. Search matches
// as a case-insensitive substring over filename, provider and invoice number.
type ListParams struct {
	TenantID string
	Search   string
	Limit    int
	Offset   int
}

// Repo defines persistence operations for documents and their OCR records.
type Repo interface {
	// CreateWithOCR persists the document and its OCR record atomically.
	CreateWithOCR(ctx context.Context, doc Document, rec OCRRecord) error
	// GetByID returns a tenant's document, or ErrNotFound. Documents owned
	// by other tenants are indistinguishable from absent ones.
	GetByID(ctx context.Context, tenantID, documentID string) (Document, error)
	// List returns a page of documents newest-first plus the total match count.
	List(ctx context.Context, p ListParams) ([]Document, int, error)
	// Update persists filename and issue date edits.
	Update(ctx context.Context, doc Document) error
	// Delete removes the document row; associations cascade.
	Delete(ctx context.Context, tenantID, documentID string) error
	// OCRText returns the raw extracted text for a document, empty if none.
	OCRText(ctx context.Context, documentID string) (string, error)
}
