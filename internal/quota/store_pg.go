package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore keeps storage accounting in the tenants table. The reservation
// guard runs inside a single UPDATE so concurrent uploads cannot both
// slip under the limit.
type PGStore struct {
	db *sql.DB
}

// NewPGStore creates a Postgres quota store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) EnsureTenant(ctx context.Context, tenantID string, defaultLimit int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, storage_limit)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`,
		tenantID, defaultLimit,
	)
	if err != nil {
		return fmt.Errorf("quota: ensure tenant: %w", err)
	}
	return nil
}

func (s *PGStore) Usage(ctx context.Context, tenantID string) (Usage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT storage_used, storage_limit FROM tenants WHERE id = $1`, tenantID)

	var u Usage
	if err := row.Scan(&u.Used, &u.Limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Usage{}, ErrUnknownTenant
		}
		return Usage{}, fmt.Errorf("quota: usage: %w", err)
	}
	return u, nil
}

func (s *PGStore) Reserve(ctx context.Context, tenantID string, delta int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET storage_used = storage_used + $2
		WHERE id = $1 AND storage_used + $2 <= storage_limit`,
		tenantID, delta,
	)
	if err != nil {
		return fmt.Errorf("quota: reserve: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("quota: reserve result: %w", err)
	}
	if affected == 0 {
		// Either the tenant is missing or the guard rejected the delta.
		if _, uerr := s.Usage(ctx, tenantID); errors.Is(uerr, ErrUnknownTenant) {
			return ErrUnknownTenant
		}
		return ErrQuotaExceeded
	}
	return nil
}

func (s *PGStore) Release(ctx context.Context, tenantID string, delta int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tenants
		SET storage_used = GREATEST(storage_used - $2, 0)
		WHERE id = $1`,
		tenantID, delta,
	)
	if err != nil {
		return fmt.Errorf("quota: release: %w", err)
	}
	return nil
}
