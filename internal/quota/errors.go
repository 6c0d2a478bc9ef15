package quota

import "errors"

// ErrQuotaExceeded means the tenant's storage budget cannot absorb the
// requested bytes. Callers translate this to HTTP 413.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrUnknownTenant means the tenant row does not exist yet.
var ErrUnknownTenant = errors.New("unknown tenant")
