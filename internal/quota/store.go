package quota

import "context"

// Usage is a tenant's storage accounting snapshot.
type Usage struct {
	Used  int64 `json:"usedBytes"`
	Limit int64 `json:"limitBytes"`
}

// Store persists per-tenant storage accounting. Reserve must be atomic:
// concurrent reservations never push usage past the limit.
type Store interface {
	// EnsureTenant creates the tenant row with the default limit if missing.
	EnsureTenant(ctx context.Context, tenantID string, defaultLimit int64) error
	// Usage returns the tenant's current accounting, or ErrUnknownTenant.
	Usage(ctx context.Context, tenantID string) (Usage, error)
	// Reserve adds delta to usage only if the result stays within the limit;
	// otherwise it changes nothing and returns ErrQuotaExceeded.
	Reserve(ctx context.Context, tenantID string, delta int64) error
	// Release subtracts delta from usage, flooring at zero.
	Release(ctx context.Context, tenantID string, delta int64) error
}
