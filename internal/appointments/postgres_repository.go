package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository is the appointment store plus the conflict index the slot
// picker consults.
type Repository interface {
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByClient(ctx context.Context, clientID int64) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]*Appointment, error)
	RecentByDoctor(ctx context.Context, doctorID int64, limit int) ([]*Appointment, error)
	ListAll(ctx context.Context) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateDateTime(ctx context.Context, id int64, dateTime time.Time) error
	Delete(ctx context.Context, id int64) error
	BookedTimes(ctx context.Context, doctorID int64) ([]time.Time, error)
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores appointments. The unique index on
// (doctor_id, date_time) is the double-booking guard; inserts racing for
// the same slot lose with a 23505 which surfaces as ErrSlotTaken.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const appointmentColumns = `a.id, a.client_id, a.doctor_id,
	u.first_name || ' ' || u.last_name,
	d.first_name || ' ' || d.last_name,
	s.name, a.date_time, a.status, a.notes, a.created_at, a.updated_at`

const appointmentFrom = `
	FROM appointments a
	JOIN users u ON u.id = a.client_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN specialties s ON s.id = d.specialty_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.DoctorID,
		&a.ClientName,
		&a.DoctorName,
		&a.SpecialtyName,
		&a.DateTime.Time,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	return &a, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// Create inserts a booking. Losing the race for a slot returns ErrSlotTaken.
func (r *PostgresRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	query := `
		INSERT INTO appointments (client_id, doctor_id, date_time, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		a.ClientID,
		a.DoctorID,
		a.DateTime.Time,
		a.Status,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return a, nil
}

// GetByID fetches one appointment with its joined display names.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + appointmentFrom + ` WHERE a.id = $1`
	return scanAppointment(r.db.QueryRow(ctx, query, id))
}

// ListByClient returns a patient's appointments, soonest first.
func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int64) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + appointmentFrom + ` WHERE a.client_id = $1 ORDER BY a.date_time`
	return r.list(ctx, query, clientID)
}

// ListByDoctor returns a doctor's appointments, soonest first.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + appointmentFrom + ` WHERE a.doctor_id = $1 ORDER BY a.date_time`
	return r.list(ctx, query, doctorID)
}

// RecentByDoctor returns the doctor's latest bookings for the dashboard.
func (r *PostgresRepository) RecentByDoctor(ctx context.Context, doctorID int64, limit int) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + appointmentFrom + ` WHERE a.doctor_id = $1 ORDER BY a.date_time DESC LIMIT $2`
	return r.list(ctx, query, doctorID, limit)
}

// ListAll returns every appointment for the admin console.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` ORDER BY a.date_time DESC`)
}

// UpdateStatus persists a lifecycle transition.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDateTime reschedules an appointment; the unique index rejects
// moving onto an occupied slot.
func (r *PostgresRepository) UpdateDateTime(ctx context.Context, id int64, dateTime time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET date_time = $2, updated_at = now() WHERE id = $1`, id, dateTime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: reschedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete cancels an appointment by removing it.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedTimes is the conflict index for one doctor: every instant held by
// a non-cancelled appointment. Cancellation deletes rows, so every stored
// row blocks its slot.
func (r *PostgresRepository) BookedTimes(ctx context.Context, doctorID int64) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT date_time FROM appointments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: booked times scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked times rows: %w", err)
	}
	return out, nil
}
