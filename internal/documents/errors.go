package documents

import "errors"

// ErrNotFound covers both absent documents and documents owned by another
// tenant; callers cannot tell the two apart.
var ErrNotFound = errors.New("document not found")

// ErrInvalidInput flags malformed upload or update payloads.
var ErrInvalidInput = errors.New("invalid input")

// ErrNotReady means the document has no encrypted blob to serve.
var ErrNotReady = errors.New("document content not available")
