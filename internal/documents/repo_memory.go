package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo for dev mode and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document  // documentID -> document
	ocr  map[string]OCRRecord // documentID -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs: make(map[string]Document),
		ocr:  make(map[string]OCRRecord),
	}
}

func (r *MemoryRepo) CreateWithOCR(ctx context.Context, doc Document, rec OCRRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	r.ocr[doc.ID] = rec
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, tenantID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) List(ctx context.Context, p ListParams) ([]Document, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(p.Search)
	var matched []Document
	for _, doc := range r.docs {
		if doc.TenantID != p.TenantID {
			continue
		}
		if needle != "" && !matchesSearch(doc, needle) {
			continue
		}
		matched = append(matched, doc)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if p.Offset >= total {
		return []Document{}, total, nil
	}
	end := total
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return matched[p.Offset:end], total, nil
}

func matchesSearch(doc Document, needle string) bool {
	if strings.Contains(strings.ToLower(doc.FileName), needle) {
		return true
	}
	if doc.Provider != nil && strings.Contains(strings.ToLower(*doc.Provider), needle) {
		return true
	}
	if doc.InvoiceNumber != nil && strings.Contains(strings.ToLower(*doc.InvoiceNumber), needle) {
		return true
	}
	return false
}

func (r *MemoryRepo) Update(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.TenantID != doc.TenantID {
		return ErrNotFound
	}
	existing.FileName = doc.FileName
	existing.IssueDate = doc.IssueDate
	existing.UpdatedAt = doc.UpdatedAt
	r.docs[doc.ID] = existing
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, tenantID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.TenantID != tenantID {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	delete(r.ocr, documentID)
	return nil
}

func (r *MemoryRepo) OCRText(ctx context.Context, documentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ocr[documentID].RawText, nil
}

var _ Repo = (*MemoryRepo)(nil)
