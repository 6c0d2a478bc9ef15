package quota

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory quota store for dev mode and tests.
type MemoryStore struct {
	mu      sync.Mutex
	tenants map[string]*Usage
}

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]*Usage)}
}

func (s *MemoryStore) EnsureTenant(ctx context.Context, tenantID string, defaultLimit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[tenantID]; !ok {
		s.tenants[tenantID] = &Usage{Limit: defaultLimit}
	}
	return nil
}

func (s *MemoryStore) Usage(ctx context.Context, tenantID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.tenants[tenantID]
	if !ok {
		return Usage{}, ErrUnknownTenant
	}
	return *u, nil
}

func (s *MemoryStore) Reserve(ctx context.Context, tenantID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.tenants[tenantID]
	if !ok {
		return ErrUnknownTenant
	}
	if u.Used+delta > u.Limit {
		return ErrQuotaExceeded
	}
	u.Used += delta
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, tenantID string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.tenants[tenantID]
	if !ok {
		return nil
	}
	u.Used -= delta
	if u.Used < 0 {
		u.Used = 0
	}
	return nil
}

// SetLimit overrides a tenant's limit; test hook.
func (s *MemoryStore) SetLimit(tenantID string, limit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.tenants[tenantID]; ok {
		u.Limit = limit
		return
	}
	s.tenants[tenantID] = &Usage{Limit: limit}
}
