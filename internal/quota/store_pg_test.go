package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreReserveWithinLimit(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE tenants`).
		WithArgs("t1", int64(512)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	if err := store.Reserve(context.Background(), "t1", 512); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGStoreReserveRejectedByGuard(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// Guard matched no row; the follow-up lookup shows the tenant exists,
	// so the delta was rejected rather than the tenant missing.
	mock.ExpectExec(`UPDATE tenants`).
		WithArgs("t1", int64(9999)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT storage_used, storage_limit`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"storage_used", "storage_limit"}).AddRow(900, 1000))

	store := NewPGStore(db)
	if err := store.Reserve(context.Background(), "t1", 9999); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Reserve = %v, want ErrQuotaExceeded", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGStoreReserveUnknownTenant(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE tenants`).
		WithArgs("ghost", int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT storage_used, storage_limit`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"storage_used", "storage_limit"}))

	store := NewPGStore(db)
	if err := store.Reserve(context.Background(), "ghost", 10); !errors.Is(err, ErrUnknownTenant) {
		t.Fatalf("Reserve = %v, want ErrUnknownTenant", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
