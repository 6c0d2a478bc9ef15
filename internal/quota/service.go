package quota

import (
	"context"
	"errors"
	"fmt"
)

// Service is the storage accounting used by ingestion. Precheck gives an
// early advisory answer before any expensive work; Reserve is the binding
// commit and the only call that mutates usage.
type Service struct {
	store        Store
	defaultLimit int64
}

// NewService creates a quota service. New tenants start with defaultLimit.
func NewService(store Store, defaultLimit int64) *Service {
	return &Service{store: store, defaultLimit: defaultLimit}
}

// Precheck reports whether size plausibly fits the tenant's remaining budget.
// It is advisory only; a concurrent upload can still win the race, which
// Reserve catches later.
func (s *Service) Precheck(ctx context.Context, tenantID string, size int64) error {
	if err := s.store.EnsureTenant(ctx, tenantID, s.defaultLimit); err != nil {
		return err
	}
	u, err := s.store.Usage(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("quota: precheck: %w", err)
	}
	if u.Used+size > u.Limit {
		return ErrQuotaExceeded
	}
	return nil
}

// Reserve atomically commits size bytes against the tenant's budget.
func (s *Service) Reserve(ctx context.Context, tenantID string, size int64) error {
	err := s.store.Reserve(ctx, tenantID, size)
	if errors.Is(err, ErrUnknownTenant) {
		if err := s.store.EnsureTenant(ctx, tenantID, s.defaultLimit); err != nil {
			return err
		}
		return s.store.Reserve(ctx, tenantID, size)
	}
	return err
}

// Release returns size bytes to the tenant's budget after a delete or a
// failed ingestion.
func (s *Service) Release(ctx context.Context, tenantID string, size int64) error {
	return s.store.Release(ctx, tenantID, size)
}

// Usage returns the tenant's accounting, creating the tenant if needed.
func (s *Service) Usage(ctx context.Context, tenantID string) (Usage, error) {
	if err := s.store.EnsureTenant(ctx, tenantID, s.defaultLimit); err != nil {
		return Usage{}, err
	}
	return s.store.Usage(ctx, tenantID)
}
