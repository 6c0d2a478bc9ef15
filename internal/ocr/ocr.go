package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"docvault-backend/internal/shared/telemetry"
)

// Recognizer is the external OCR capability: given a file on disk it returns
// the recognized text. Implementations may fail; callers decide what that
// means for their pipeline.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, path string) (string, error)

// Recognize implements Recognizer.
func (f RecognizerFunc) Recognize(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// minTextRunes is the threshold under which recognized output is judged noise.
const minTextRunes = 4

// Extractor adapts the OCR capability to the ingestion pipeline. Only image
// media is recognized; PDFs and other types are skipped in this pipeline
// version. OCR failure degrades to empty text instead of failing ingestion.
type Extractor struct {
	recognizer Recognizer
	tempDir    string
}

// NewExtractor builds an Extractor. A nil recognizer disables OCR entirely.
func NewExtractor(recognizer Recognizer, tempDir string) *Extractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{recognizer: recognizer, tempDir: tempDir}
}

// Extract runs OCR over image content and returns normalized text. Non-image
// media types return empty text without invoking the recognizer.
func (e *Extractor) Extract(ctx context.Context, fileBytes []byte, mediaType string) string {
	if e.recognizer == nil || !IsImage(mediaType) {
		return ""
	}
	if err := ctx.Err(); err != nil {
		return ""
	}

	tmp, err := os.CreateTemp(e.tempDir, "ocr-*"+extensionFor(mediaType))
	if err != nil {
		telemetry.Warn("ocr.tempfile_failed", map[string]any{"error": err.Error()})
		return ""
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(fileBytes); err != nil {
		tmp.Close()
		telemetry.Warn("ocr.tempfile_failed", map[string]any{"error": err.Error()})
		return ""
	}
	if err := tmp.Close(); err != nil {
		telemetry.Warn("ocr.tempfile_failed", map[string]any{"error": err.Error()})
		return ""
	}

	text, err := e.recognizer.Recognize(ctx, tmpPath)
	if err != nil {
		// Upstream failure is absorbed: the document is still usable without text.
		telemetry.Warn("ocr.recognize_failed", map[string]any{"error": err.Error(), "media_type": mediaType})
		return ""
	}
	return Normalize(text)
}

// IsImage reports whether the media type goes through OCR.
func IsImage(mediaType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	return strings.HasPrefix(clean, "image/")
}

// IsPDF reports whether the media type is PDF-like.
func IsPDF(mediaType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0]))
	return clean == "application/pdf"
}

// Normalize collapses whitespace runs and drops output judged noise.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	alnum := 0
	for _, r := range collapsed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum < minTextRunes {
		return ""
	}
	return collapsed
}

func extensionFor(mediaType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mediaType, ";")[0])) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/tiff":
		return ".tif"
	default:
		return ".jpg"
	}
}

// TesseractRecognizer shells out to the tesseract binary.
type TesseractRecognizer struct {
	Binary   string
	Language string
}

// NewTesseractRecognizer builds a Recognizer around a tesseract install.
func NewTesseractRecognizer(binary, language string) *TesseractRecognizer {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractRecognizer{Binary: binary, Language: language}
}

// Recognize runs `tesseract <path> stdout -l <lang>` and returns its output.
func (t *TesseractRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("ocr: resolve path: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.Binary, abs, "stdout", "-l", t.Language)
	var out strings.Builder
	var stderr strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ocr: %s failed: %w: %s", t.Binary, err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
