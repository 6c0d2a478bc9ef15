package ocr

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestExtractSkipsNonImageMedia(t *testing.T) {
	called := false
	rec := RecognizerFunc(func(ctx context.Context, path string) (string, error) {
		called = true
		return "should not run", nil
	})
	e := NewExtractor(rec, t.TempDir())

	for _, mediaType := range []string{"application/pdf", "text/plain", "application/octet-stream"} {
		if got := e.Extract(context.Background(), []byte("data"), mediaType); got != "" {
			t.Fatalf("Extract(%s) = %q, want empty", mediaType, got)
		}
	}
	if called {
		t.Fatal("recognizer invoked for non-image media")
	}
}

func TestExtractRunsRecognizerForImages(t *testing.T) {
	var seenPath string
	rec := RecognizerFunc(func(ctx context.Context, path string) (string, error) {
		seenPath = path
		return "  Factura   de  Repsol\n\n45,67 ", nil
	})
	e := NewExtractor(rec, t.TempDir())

	got := e.Extract(context.Background(), []byte("fake-jpeg"), "image/jpeg")
	if got != "Factura de Repsol 45,67" {
		t.Fatalf("Extract = %q", got)
	}
	if seenPath == "" {
		t.Fatal("recognizer never saw a temp file")
	}
	if _, err := os.Stat(seenPath); !os.IsNotExist(err) {
		t.Fatalf("temp file %s not cleaned up", seenPath)
	}
}

func TestExtractAbsorbsRecognizerFailure(t *testing.T) {
	rec := RecognizerFunc(func(ctx context.Context, path string) (string, error) {
		return "", errors.New("ocr service down")
	})
	e := NewExtractor(rec, t.TempDir())

	if got := e.Extract(context.Background(), []byte("fake-jpeg"), "image/jpeg"); got != "" {
		t.Fatalf("Extract = %q, want empty on recognizer failure", got)
	}
}

func TestExtractWithoutRecognizer(t *testing.T) {
	e := NewExtractor(nil, t.TempDir())
	if got := e.Extract(context.Background(), []byte("fake-jpeg"), "image/jpeg"); got != "" {
		t.Fatalf("Extract = %q, want empty when OCR is disabled", got)
	}
}

func TestNormalizeDropsNoise(t *testing.T) {
	cases := map[string]string{
		"  \n\t ":           "",
		". , ; -":           "",
		"ab":                "",
		"Total 45,67":       "Total 45,67",
		"a   b\n\nc\td 123": "a b c d 123",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("image/png") || !IsImage("IMAGE/JPEG; charset=binary") {
		t.Fatal("expected image types to match")
	}
	if IsImage("application/pdf") || IsImage("") {
		t.Fatal("expected non-image types not to match")
	}
	if !IsPDF("application/pdf") || IsPDF("image/png") {
		t.Fatal("IsPDF misclassified")
	}
}
