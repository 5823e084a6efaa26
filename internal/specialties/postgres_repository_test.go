package specialties

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

func TestDeleteRefusedWhileInUse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM doctors WHERE specialty_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), 2); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteUnreferencedSpecialty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM doctors WHERE specialty_id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`DELETE FROM specialties WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO specialties`).
		WithArgs("Cardiologie", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "specialties_name_key"})

	repo := NewPostgresRepositoryWithDB(mock)
	_, err = repo.Create(context.Background(), &UpsertRequest{Name: "Cardiologie"})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestCreateRequiresName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.Create(context.Background(), &UpsertRequest{Name: "  "}); !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestListWithCounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT s.id, s.name, s.description, COUNT\(d.id\)`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "count"}).
			AddRow(int64(1), "Cardiologie", "", int64(4)).
			AddRow(int64(2), "Dermatologie", "peau", int64(0)))

	repo := NewPostgresRepositoryWithDB(mock)
	items, err := repo.ListWithCounts(context.Background())
	if err != nil {
		t.Fatalf("ListWithCounts: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 specialties, got %d", len(items))
	}
	if items[0].DoctorsCount != 4 || items[1].DoctorsCount != 0 {
		t.Fatalf("unexpected counts: %+v", items)
	}
}
