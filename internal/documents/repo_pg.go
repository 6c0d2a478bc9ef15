package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const documentColumns = `id, tenant_id, file_name, mime_type, size_bytes, storage_key, iv, auth_tag, status, provider, invoice_number, currency, amount, issue_date, metadata, created_at, updated_at`

// CreateWithOCR inserts the document and its OCR record in one transaction.
func (r *PGRepo) CreateWithOCR(ctx context.Context, doc Document, rec OCRRecord) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("documents: marshal metadata: %w", err)
	}
	if doc.Metadata == nil {
		metadata = []byte("{}")
	}
	extraction, err := json.Marshal(rec.Extraction)
	if err != nil {
		return fmt.Errorf("documents: marshal extraction: %w", err)
	}
	if rec.Extraction == nil {
		extraction = []byte("{}")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documents: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		doc.ID,
		doc.TenantID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		nullString(doc.StorageKey),
		nullString(doc.IV),
		nullString(doc.AuthTag),
		string(doc.Status),
		doc.Provider,
		doc.InvoiceNumber,
		doc.Currency,
		doc.Amount,
		doc.IssueDate,
		metadata,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("documents: insert document: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO ocr_records (document_id, raw_text, extraction, created_at)
VALUES ($1, $2, $3, $4)`,
		rec.DocumentID, rec.RawText, extraction, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("documents: insert ocr record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("documents: commit: %w", err)
	}
	return nil
}

// GetByID fetches a document scoped to its owning tenant.
func (r *PGRepo) GetByID(ctx context.Context, tenantID, documentID string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE tenant_id = $1 AND id = $2`,
		tenantID, documentID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("documents: get: %w", err)
	}
	return doc, nil
}

// List returns a page of the tenant's documents newest-first plus the total
// count matching the same predicate.
func (r *PGRepo) List(ctx context.Context, p ListParams) ([]Document, int, error) {
	where := `tenant_id = $1`
	args := []any{p.TenantID}
	if p.Search != "" {
		where += ` AND (file_name ILIKE '%' || $2 || '%' OR provider ILIKE '%' || $2 || '%' OR invoice_number ILIKE '%' || $2 || '%')`
		args = append(args, p.Search)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("documents: count: %w", err)
	}

	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE ` + where + `
ORDER BY created_at DESC
LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("documents: list: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("documents: list scan: %w", err)
		}
		out = append(out, doc)
	}
	return out, total, rows.Err()
}

// Update persists the mutable fields of a document.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE documents
SET file_name = $1, issue_date = $2, updated_at = $3
WHERE tenant_id = $4 AND id = $5`,
		doc.FileName, doc.IssueDate, doc.UpdatedAt, doc.TenantID, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("documents: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("documents: update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tenant's document; OCR record and tag associations cascade.
func (r *PGRepo) Delete(ctx context.Context, tenantID, documentID string) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("documents: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("documents: delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// OCRText returns the raw extracted text for a document, empty if none.
func (r *PGRepo) OCRText(ctx context.Context, documentID string) (string, error) {
	var text string
	err := r.DB.QueryRowContext(ctx,
		`SELECT raw_text FROM ocr_records WHERE document_id = $1`, documentID).Scan(&text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("documents: ocr text: %w", err)
	}
	return text, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var storageKey, iv, authTag sql.NullString
	var provider, invoiceNumber, currency sql.NullString
	var amount sql.NullFloat64
	var issueDate sql.NullTime
	var status string
	var metadata []byte

	err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&storageKey,
		&iv,
		&authTag,
		&status,
		&provider,
		&invoiceNumber,
		&currency,
		&amount,
		&issueDate,
		&metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.Status = Status(status)
	if storageKey.Valid {
		doc.StorageKey = storageKey.String
	}
	if iv.Valid {
		doc.IV = iv.String
	}
	if authTag.Valid {
		doc.AuthTag = authTag.String
	}
	if provider.Valid {
		doc.Provider = &provider.String
	}
	if invoiceNumber.Valid {
		doc.InvoiceNumber = &invoiceNumber.String
	}
	if currency.Valid {
		doc.Currency = &currency.String
	}
	if amount.Valid {
		doc.Amount = &amount.Float64
	}
	if issueDate.Valid {
		t := issueDate.Time
		doc.IssueDate = &t
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &doc.Metadata)
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
