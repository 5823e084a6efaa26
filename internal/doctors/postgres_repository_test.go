package doctors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/curatime/curatime/internal/availability"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() { mock.Close() })
	return mock
}

func doctorRow(mock pgxmock.PgxPoolIface, availJSON string) *pgxmock.Rows {
	fee := 50.0
	userID := int64(9)
	return mock.NewRows([]string{
		"id", "user_id", "first_name", "last_name", "email", "phone",
		"address", "city", "state", "zip_code", "specialty_id", "name",
		"availability", "bio", "consultation_fee",
	}).AddRow(
		int64(7), &userID, "Alice", "Durand", "alice@clinic.test", "0600000000",
		"1 rue X", "Paris", "", "75001", int64(3), "Cardiologie",
		[]byte(availJSON), "bio", &fee,
	)
}

func TestGetByIDParsesStoredAvailability(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT d\.id, d\.user_id`).
		WithArgs(int64(7)).
		WillReturnRows(doctorRow(mock, `{"2025-03-01":["10:00","09:00"]}`))

	repo := NewPostgresRepositoryWithDB(mock)
	d, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if d.SpecialtyName != "Cardiologie" {
		t.Fatalf("specialty name = %q", d.SpecialtyName)
	}
	got := d.Availability.TimesFor("2025-03-01")
	if len(got) != 2 || got[0] != "09:00" || got[1] != "10:00" {
		t.Fatalf("availability not normalized: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByIDRejectsCorruptAvailability(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT d\.id, d\.user_id`).
		WithArgs(int64(7)).
		WillReturnRows(doctorRow(mock, `{"not-a-date":["09:00"]}`))

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.GetByID(context.Background(), 7); err == nil {
		t.Fatal("expected error for corrupt stored schedule")
	}
}

func TestGetByUserIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`WHERE d\.user_id`).
		WithArgs(int64(42)).
		WillReturnRows(mock.NewRows([]string{"id"}))

	repo := NewPostgresRepositoryWithDB(mock)
	if _, err := repo.GetByUserID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIDByEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id FROM doctors WHERE lower\(email\)`).
		WithArgs("alice@clinic.test").
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(int64(7)))

	repo := NewPostgresRepositoryWithDB(mock)
	id, err := repo.IDByEmail(context.Background(), "alice@clinic.test")
	if err != nil {
		t.Fatalf("IDByEmail: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d", id)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO doctors`).
		WithArgs(pgxmock.AnyArg(), "Alice", "Durand", "alice@clinic.test", "", "",
			"", "", "", int64(3), pgxmock.AnyArg(), "", pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	repo := NewPostgresRepositoryWithDB(mock)
	_, err := repo.Create(context.Background(), &Doctor{
		FirstName:   "Alice",
		LastName:    "Durand",
		Email:       "alice@clinic.test",
		SpecialtyID: 3,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateAvailability(t *testing.T) {
	mock := newMock(t)
	sched := availability.NewSchedule()
	if err := sched.Add("2025-03-01", "09:00"); err != nil {
		t.Fatal(err)
	}
	mock.ExpectExec(`UPDATE doctors SET availability`).
		WithArgs(int64(7), []byte(`{"2025-03-01":["09:00"]}`)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.UpdateAvailability(context.Background(), 7, sched); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateAvailabilityUnknownDoctor(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE doctors SET availability`).
		WithArgs(int64(99), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	err := repo.UpdateAvailability(context.Background(), 99, availability.NewSchedule())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUnknownDoctor(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM doctors`).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepositoryWithDB(mock)
	if err := repo.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminList(t *testing.T) {
	mock := newMock(t)
	rows := mock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone", "name",
		"is_active", "date_joined", "consultation_fee", "bio",
	}).AddRow(int64(7), "Alice", "Durand", "alice@clinic.test", "", "Cardiologie",
		false, nil, nil, "")
	mock.ExpectQuery(`LEFT JOIN users`).WillReturnRows(rows)

	repo := NewPostgresRepositoryWithDB(mock)
	list, err := repo.AdminList(context.Background())
	if err != nil {
		t.Fatalf("AdminList: %v", err)
	}
	if len(list) != 1 || list[0].IsActive {
		t.Fatalf("unexpected admin list: %+v", list)
	}
}
