package documents

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"docvault-backend/internal/ocr"
	"docvault-backend/internal/quota"
	localstore "docvault-backend/internal/shared/storage/object/local"
	"docvault-backend/internal/tags"
	"docvault-backend/internal/vault"
)

type failingRepo struct {
	Repo
}

func (failingRepo) CreateWithOCR(ctx context.Context, doc Document, rec OCRRecord) error {
	return errors.New("insert failed")
}

func newTestService(t *testing.T, repo Repo, limit int64) (*Service, *quota.Service, string) {
	t.Helper()

	v, err := vault.NewWithParams("service-test-secret", vault.Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	storeDir := t.TempDir()
	quotaSvc := quota.NewService(quota.NewMemoryStore(), limit)
	svc := &Service{
		Repo:      repo,
		Blobs:     localstore.New(storeDir),
		Vault:     v,
		Extractor: ocr.NewExtractor(nil, t.TempDir()),
		Tags:      tags.NewService(tags.NewMemoryRepo()),
		Quota:     quotaSvc,
	}
	return svc, quotaSvc, storeDir
}

func TestIngestPersistFailureCleansUpEverything(t *testing.T) {
	ctx := context.Background()
	svc, quotaSvc, storeDir := newTestService(t, failingRepo{NewMemoryRepo()}, 1<<20)

	_, _, err := svc.Ingest(ctx, "tenant-a", IngestInput{
		FileName:     "doomed.jpg",
		MimeType:     "image/jpeg",
		DeclaredSize: 7,
		Content:      bytes.NewReader([]byte("content")),
	})
	if err == nil {
		t.Fatal("Ingest succeeded despite persistence failure")
	}

	if n := countBlobFiles(t, storeDir); n != 0 {
		t.Fatalf("%d residual blobs after aborted ingestion", n)
	}
	u, err := quotaSvc.Usage(ctx, "tenant-a")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 0 {
		t.Fatalf("quota usage = %d after aborted ingestion, want 0", u.Used)
	}
}

func TestIngestChargesTrueSizeNotDeclared(t *testing.T) {
	ctx := context.Background()
	svc, quotaSvc, _ := newTestService(t, NewMemoryRepo(), 1<<20)

	content := []byte("twelve bytes")
	_, _, err := svc.Ingest(ctx, "tenant-a", IngestInput{
		FileName:     "small.jpg",
		MimeType:     "image/jpeg",
		DeclaredSize: 3, // understated on purpose
		Content:      bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	u, _ := quotaSvc.Usage(ctx, "tenant-a")
	if u.Used != int64(len(content)) {
		t.Fatalf("quota charged %d bytes, want true size %d", u.Used, len(content))
	}
}

func TestIngestRejectsEmptyAndOversizedFiles(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, NewMemoryRepo(), 1<<40)

	_, _, err := svc.Ingest(ctx, "tenant-a", IngestInput{
		FileName: "empty.jpg",
		MimeType: "image/jpeg",
		Content:  bytes.NewReader(nil),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty file error = %v, want ErrInvalidInput", err)
	}

	_, _, err = svc.Ingest(ctx, "tenant-a", IngestInput{
		FileName:     "huge.jpg",
		MimeType:     "image/jpeg",
		DeclaredSize: maxFileBytes + 1,
		Content:      bytes.NewReader([]byte("x")),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversized file error = %v, want ErrInvalidInput", err)
	}
}

func TestUserMetadataWinsOverParsedFields(t *testing.T) {
	ctx := context.Background()

	v, err := vault.NewWithParams("service-test-secret", vault.Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	rec := ocr.RecognizerFunc(func(ctx context.Context, path string) (string, error) {
		return "Factura #4521 de Repsol, 45,67€, 15/03/2024", nil
	})
	svc := &Service{
		Repo:      NewMemoryRepo(),
		Blobs:     localstore.New(t.TempDir()),
		Vault:     v,
		Extractor: ocr.NewExtractor(rec, t.TempDir()),
		Tags:      tags.NewService(tags.NewMemoryRepo()),
		Quota:     quota.NewService(quota.NewMemoryStore(), 1<<20),
	}

	provider := "Cepsa"
	amount := 99.99
	doc, _, err := svc.Ingest(ctx, "tenant-a", IngestInput{
		FileName:     "recibo.jpg",
		MimeType:     "image/jpeg",
		DeclaredSize: 5,
		Content:      bytes.NewReader([]byte("bytes")),
		Provider:     &provider,
		Amount:       &amount,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if doc.Provider == nil || *doc.Provider != "Cepsa" {
		t.Fatalf("provider = %v, want user-supplied Cepsa", doc.Provider)
	}
	if doc.Amount == nil || *doc.Amount != 99.99 {
		t.Fatalf("amount = %v, want user-supplied 99.99", doc.Amount)
	}
	// Fields the user left blank still come from the parser.
	if doc.InvoiceNumber == nil || *doc.InvoiceNumber != "4521" {
		t.Fatalf("invoiceNumber = %v, want parsed 4521", doc.InvoiceNumber)
	}
}

func countBlobFiles(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return count
}
