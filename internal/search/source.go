package search

import (
	"context"
	"time"

	"docvault-backend/internal/documents"
)

// Candidate is the searchable projection of a document: plaintext metadata
// plus its OCR text. Encrypted content never enters the engine.
type Candidate struct {
	ID            string
	FileName      string
	MimeType      string
	SizeBytes     int64
	Provider      string
	InvoiceNumber string
	Currency      string
	Amount        *float64
	IssueDate     *time.Time
	OCRText       string
	CreatedAt     time.Time
}

// Source yields a tenant's searchable candidates. Predicate evaluation and
// scoring happen in the engine, so both backends share one code path; push
// the predicates into SQL if tenant corpora outgrow this.
type Source interface {
	Candidates(ctx context.Context, tenantID string) ([]Candidate, error)
}

// RepoSource adapts the documents repository into a Source; used with the
// in-memory repo where no SQL join is available.
type RepoSource struct {
	Repo documents.Repo
}

func (s *RepoSource) Candidates(ctx context.Context, tenantID string) ([]Candidate, error) {
	docs, _, err := s.Repo.List(ctx, documents.ListParams{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(docs))
	for _, doc := range docs {
		text, err := s.Repo.OCRText(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{
			ID:            doc.ID,
			FileName:      doc.FileName,
			MimeType:      doc.MimeType,
			SizeBytes:     doc.SizeBytes,
			Provider:      strPtrValue(doc.Provider),
			InvoiceNumber: strPtrValue(doc.InvoiceNumber),
			Currency:      strPtrValue(doc.Currency),
			Amount:        doc.Amount,
			IssueDate:     doc.IssueDate,
			OCRText:       text,
			CreatedAt:     doc.CreatedAt,
		})
	}
	return out, nil
}

func strPtrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
