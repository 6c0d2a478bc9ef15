package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveOpenDeleteRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key := "abc123/2026/08/27/blob.enc"
	n, err := store.Save(ctx, key, "application/octet-stream", strings.NewReader("ciphertext-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("ciphertext-bytes")) {
		t.Fatalf("Save size = %d, want %d", n, len("ciphertext-bytes"))
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "ciphertext-bytes" {
		t.Fatalf("read back %q", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, key); err == nil {
		t.Fatal("expected open of deleted blob to fail")
	}
	// Deleting again is a no-op, not an error.
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"../escape", "/abs/path", "."} {
		if _, err := store.Save(ctx, key, "", strings.NewReader("x")); err == nil {
			t.Fatalf("Save(%q): expected error", key)
		}
		if _, err := store.Open(ctx, key); err == nil {
			t.Fatalf("Open(%q): expected error", key)
		}
	}
}
