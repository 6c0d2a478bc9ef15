package documents

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault-backend/internal/fields"
	"docvault-backend/internal/ocr"
	"docvault-backend/internal/quota"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/storage/object"
	"docvault-backend/internal/shared/telemetry"
	"docvault-backend/internal/shared/util"
	"docvault-backend/internal/tags"
	"docvault-backend/internal/vault"
)

const maxFileBytes = 25 << 20 // hard per-file ceiling, independent of quota

// IngestInput carries one upload into the pipeline. Caller-supplied metadata
// wins over anything parsed out of the OCR text.
type IngestInput struct {
	FileName      string
	MimeType      string
	DeclaredSize  int64
	Content       io.Reader
	Provider      *string
	InvoiceNumber *string
	Currency      *string
	Amount        *float64
	IssueDate     *time.Time
}

// Service orchestrates ingestion and serves document reads, edits and
// deletion. Ingest sequences OCR, field parsing, encryption, blob write,
// quota commit and persistence; everything written before a failure is
// removed again.
type Service struct {
	Repo      Repo
	Blobs     object.BlobStore
	Vault     *vault.Vault
	Extractor *ocr.Extractor
	Tags      *tags.Service
	Quota     *quota.Service
}

// Ingest runs the full pipeline for one upload and returns the ready
// document with its tags. Quota misses surface as quota.ErrQuotaExceeded.
func (s *Service) Ingest(ctx context.Context, tenantID string, in IngestInput) (Document, []string, error) {
	started := time.Now()
	metrics.IncIngestStarted()

	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if in.Amount != nil && *in.Amount < 0 {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if in.DeclaredSize < 0 || in.DeclaredSize > maxFileBytes {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("%w: file size out of range", ErrInvalidInput)
	}

	// Advisory gate on the declared size, before the body is read.
	if err := s.Quota.Precheck(ctx, tenantID, in.DeclaredSize); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.IncIngestRejected()
			return Document{}, nil, err
		}
		metrics.IncIngestFailed()
		return Document{}, nil, err
	}

	plaintext, err := io.ReadAll(io.LimitReader(in.Content, maxFileBytes+1))
	if err != nil {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("documents: read upload: %w", err)
	}
	if len(plaintext) == 0 {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if int64(len(plaintext)) > maxFileBytes {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("%w: file size out of range", ErrInvalidInput)
	}
	trueSize := int64(len(plaintext))

	text := s.Extractor.Extract(ctx, plaintext, in.MimeType)
	parsed := fields.Parse(text)

	doc := Document{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		FileName:      fileName,
		MimeType:      in.MimeType,
		SizeBytes:     trueSize,
		Status:        StatusReady,
		Provider:      coalesce(in.Provider, parsed.Provider),
		InvoiceNumber: coalesce(in.InvoiceNumber, parsed.InvoiceNumber),
		Currency:      in.Currency,
		Amount:        coalesceFloat(in.Amount, parsed.Amount),
		IssueDate:     coalesceTime(in.IssueDate, parsed.IssueDate),
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	ciphertext, iv, tag, err := s.Vault.Encrypt(plaintext, tenantID)
	if err != nil {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("documents: encrypt: %w", err)
	}
	doc.IV = base64.StdEncoding.EncodeToString(iv)
	doc.AuthTag = base64.StdEncoding.EncodeToString(tag)
	doc.StorageKey = storageKeyFor(tenantID, doc.ID, fileName, doc.CreatedAt)

	if _, err := s.Blobs.Save(ctx, doc.StorageKey, "application/octet-stream", bytes.NewReader(ciphertext)); err != nil {
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("documents: write blob: %w", err)
	}

	// Binding quota commit on the true size. Cleanup paths below run on a
	// detached context so a client disconnect cannot leak the blob.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.Quota.Reserve(ctx, tenantID, trueSize); err != nil {
		s.removeBlob(cleanupCtx, doc.StorageKey)
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.IncIngestRejected()
			return Document{}, nil, err
		}
		metrics.IncIngestFailed()
		return Document{}, nil, err
	}

	rec := OCRRecord{
		DocumentID: doc.ID,
		RawText:    text,
		Extraction: extractionMap(parsed),
		CreatedAt:  doc.CreatedAt,
	}
	if err := s.Repo.CreateWithOCR(ctx, doc, rec); err != nil {
		s.removeBlob(cleanupCtx, doc.StorageKey)
		if rerr := s.Quota.Release(cleanupCtx, tenantID, trueSize); rerr != nil {
			telemetry.Error("ingest.quota_release_failed", map[string]any{
				"tenant_id": tenantID, "document_id": doc.ID, "error": rerr.Error(),
			})
		}
		metrics.IncIngestFailed()
		return Document{}, nil, fmt.Errorf("documents: persist: %w", err)
	}

	// Past this point the document is valid; tagging is best-effort.
	candidates := tags.Infer(text, deref(doc.Provider), fileName, ocr.IsImage(in.MimeType))
	if err := s.Tags.Apply(cleanupCtx, tenantID, doc.ID, candidates); err != nil {
		telemetry.Warn("ingest.tagging_failed", map[string]any{
			"tenant_id": tenantID, "document_id": doc.ID, "error": err.Error(),
		})
	}
	docTags, err := s.Tags.For(cleanupCtx, doc.ID)
	if err != nil {
		docTags = nil
	}

	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(metrics.DurationMillis(time.Since(started)))
	telemetry.Info("ingest.completed", map[string]any{
		"tenant_id": tenantID, "document_id": doc.ID, "size_bytes": trueSize, "tags": len(docTags),
	})
	return doc, docTags, nil
}

// Get returns a tenant's document with its tags.
func (s *Service) Get(ctx context.Context, tenantID, documentID string) (Document, []string, error) {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	docTags, err := s.Tags.For(ctx, doc.ID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, docTags, nil
}

// Page is one listing page plus its pagination envelope.
type Page struct {
	Documents []Document
	Tags      map[string][]string // documentID -> tag names
	Total     int
	Pages     int
}

// List returns a page of the tenant's documents with joined tags.
func (s *Service) List(ctx context.Context, p ListParams) (Page, error) {
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	docs, total, err := s.Repo.List(ctx, p)
	if err != nil {
		return Page{}, err
	}

	joined := make(map[string][]string, len(docs))
	for _, doc := range docs {
		names, err := s.Tags.For(ctx, doc.ID)
		if err != nil {
			return Page{}, err
		}
		joined[doc.ID] = names
	}

	return Page{
		Documents: docs,
		Tags:      joined,
		Total:     total,
		Pages:     (total + p.Limit - 1) / p.Limit,
	}, nil
}

// UpdateInput carries the only two fields a caller may edit.
type UpdateInput struct {
	FileName  *string
	IssueDate *time.Time
}

// Update edits filename and issue date; everything else is immutable.
func (s *Service) Update(ctx context.Context, tenantID, documentID string, in UpdateInput) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return Document{}, err
	}

	if in.FileName != nil {
		clean, err := util.SanitizeFileName(*in.FileName)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
		doc.FileName = clean
	}
	if in.IssueDate != nil {
		doc.IssueDate = in.IssueDate
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes the document row, its blob, its tag associations and
// returns the bytes to the tenant's quota.
func (s *Service) Delete(ctx context.Context, tenantID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, tenantID, documentID); err != nil {
		return err
	}

	cleanupCtx := context.WithoutCancel(ctx)
	if doc.StorageKey != "" {
		s.removeBlob(cleanupCtx, doc.StorageKey)
	}
	if err := s.Tags.Forget(cleanupCtx, documentID); err != nil {
		telemetry.Warn("documents.tag_detach_failed", map[string]any{
			"document_id": documentID, "error": err.Error(),
		})
	}
	if err := s.Quota.Release(cleanupCtx, tenantID, doc.SizeBytes); err != nil {
		telemetry.Error("documents.quota_release_failed", map[string]any{
			"tenant_id": tenantID, "document_id": documentID, "error": err.Error(),
		})
	}
	return nil
}

// Open decrypts a document's content for preview or download. Integrity
// failures surface as vault.ErrIntegrity.
func (s *Service) Open(ctx context.Context, tenantID, documentID string) (Document, []byte, error) {
	doc, err := s.Repo.GetByID(ctx, tenantID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	if doc.Status != StatusReady || doc.StorageKey == "" {
		return Document{}, nil, ErrNotReady
	}

	rc, err := s.Blobs.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("documents: open blob: %w", err)
	}
	defer rc.Close()
	ciphertext, err := io.ReadAll(rc)
	if err != nil {
		return Document{}, nil, fmt.Errorf("documents: read blob: %w", err)
	}

	iv, err := base64.StdEncoding.DecodeString(doc.IV)
	if err != nil {
		return Document{}, nil, vault.ErrIntegrity
	}
	tag, err := base64.StdEncoding.DecodeString(doc.AuthTag)
	if err != nil {
		return Document{}, nil, vault.ErrIntegrity
	}

	plaintext, err := s.Vault.Decrypt(ciphertext, iv, tag, tenantID)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, plaintext, nil
}

func (s *Service) removeBlob(ctx context.Context, storageKey string) {
	if err := s.Blobs.Delete(ctx, storageKey); err != nil {
		telemetry.Error("documents.blob_delete_failed", map[string]any{
			"storage_key": storageKey, "error": err.Error(),
		})
	}
}

// storageKeyFor segments blobs by hashed tenant and upload date.
func storageKeyFor(tenantID, documentID, fileName string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s/%s%s.enc",
		util.HashTenantKey(tenantID), at.UTC().Format("2006/01/02"), documentID, ext)
}

func extractionMap(f fields.Fields) map[string]any {
	out := map[string]any{}
	if f.Amount != nil {
		out["amount"] = *f.Amount
	}
	if f.RawDate != nil {
		out["date"] = *f.RawDate
	}
	if f.InvoiceNumber != nil {
		out["invoiceNumber"] = *f.InvoiceNumber
	}
	if f.Provider != nil {
		out["provider"] = *f.Provider
	}
	return out
}

func coalesce(primary, fallback *string) *string {
	if primary != nil && strings.TrimSpace(*primary) != "" {
		return primary
	}
	return fallback
}

func coalesceFloat(primary, fallback *float64) *float64 {
	if primary != nil {
		return primary
	}
	return fallback
}

func coalesceTime(primary, fallback *time.Time) *time.Time {
	if primary != nil {
		return primary
	}
	return fallback
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
