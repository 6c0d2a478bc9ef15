package tags

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoEnsureReturnsExistingRow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs("new-id", "facturas").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("old-id", "facturas"))

	repo := NewPGRepo(db)
	got, err := repo.Ensure(context.Background(), Tag{ID: "new-id", Name: "facturas"})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got.ID != "old-id" {
		t.Fatalf("Ensure returned %+v, want conflicting row", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGRepoUsageCounts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT t.name, COUNT`).
		WithArgs("tenant-a").
		WillReturnRows(sqlmock.NewRows([]string{"name", "uses"}).
			AddRow("facturas", 7).
			AddRow("foto", 2))

	repo := NewPGRepo(db)
	counts, err := repo.UsageCounts(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("UsageCounts: %v", err)
	}
	if len(counts) != 2 || counts[0].Name != "facturas" || counts[0].Count != 7 {
		t.Fatalf("UsageCounts = %+v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
