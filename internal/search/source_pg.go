package search

import (
	"context"
	"database/sql"
	"fmt"
)

// PGSource loads searchable candidates with one join over documents and
// their OCR records.
type PGSource struct {
	DB *sql.DB
}

// NewPGSource constructs a PGSource.
func NewPGSource(db *sql.DB) *PGSource {
	return &PGSource{DB: db}
}

func (s *PGSource) Candidates(ctx context.Context, tenantID string) ([]Candidate, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT d.id, d.file_name, d.mime_type, d.size_bytes, d.provider, d.invoice_number,
       d.currency, d.amount, d.issue_date, COALESCE(o.raw_text, ''), d.created_at
FROM documents d
LEFT JOIN ocr_records o ON o.document_id = d.id
WHERE d.tenant_id = $1 AND d.status = 'ready'
ORDER BY d.created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("search: candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var provider, invoiceNumber, currency sql.NullString
		var amount sql.NullFloat64
		var issueDate sql.NullTime
		if err := rows.Scan(
			&c.ID,
			&c.FileName,
			&c.MimeType,
			&c.SizeBytes,
			&provider,
			&invoiceNumber,
			&currency,
			&amount,
			&issueDate,
			&c.OCRText,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("search: candidates scan: %w", err)
		}
		if provider.Valid {
			c.Provider = provider.String
		}
		if invoiceNumber.Valid {
			c.InvoiceNumber = invoiceNumber.String
		}
		if currency.Valid {
			c.Currency = currency.String
		}
		if amount.Valid {
			c.Amount = &amount.Float64
		}
		if issueDate.Valid {
			t := issueDate.Time
			c.IssueDate = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

var _ Source = (*PGSource)(nil)
