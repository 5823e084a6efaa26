package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curatime/curatime/internal/availability"
)

const uniqueViolation = "23505"

// Repository is the doctor profile store.
type Repository interface {
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialty(ctx context.Context, specialtyID int64) ([]*Doctor, error)
	AdminList(ctx context.Context) ([]*AdminDoctor, error)
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*Doctor, error)
	IDByEmail(ctx context.Context, email string) (int64, error)
	Create(ctx context.Context, d *Doctor) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	UpdateAvailability(ctx context.Context, id int64, sched availability.Schedule) error
	Delete(ctx context.Context, id int64) error
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores doctor profiles, with the availability schedule
// persisted as a JSONB column.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const doctorColumns = `d.id, d.user_id, d.first_name, d.last_name, d.email, d.phone,
	d.address, d.city, d.state, d.zip_code, d.specialty_id, s.name,
	d.availability, d.bio, d.consultation_fee`

const doctorFrom = ` FROM doctors d JOIN specialties s ON s.id = d.specialty_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var (
		d         Doctor
		availJSON []byte
	)
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Phone,
		&d.Address,
		&d.City,
		&d.State,
		&d.ZipCode,
		&d.SpecialtyID,
		&d.SpecialtyName,
		&availJSON,
		&d.Bio,
		&d.ConsultationFee,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("doctors: scan: %w", err)
	}
	d.Availability = availability.NewSchedule()
	if len(availJSON) > 0 {
		sched, err := availability.ParseSchedule(availJSON)
		if err != nil {
			return nil, fmt.Errorf("doctors: stored availability for doctor %d: %w", d.ID, err)
		}
		d.Availability = sched
	}
	return &d, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Doctor, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

// List returns every doctor profile, newest last.
func (r *PostgresRepository) List(ctx context.Context) ([]*Doctor, error) {
	return r.list(ctx, `SELECT `+doctorColumns+doctorFrom+` ORDER BY d.id`)
}

// ListBySpecialty filters the directory by specialty.
func (r *PostgresRepository) ListBySpecialty(ctx context.Context, specialtyID int64) ([]*Doctor, error) {
	return r.list(ctx, `SELECT `+doctorColumns+doctorFrom+` WHERE d.specialty_id = $1 ORDER BY d.id`, specialtyID)
}

// AdminList joins account state onto each profile for the admin console.
func (r *PostgresRepository) AdminList(ctx context.Context) ([]*AdminDoctor, error) {
	query := `
		SELECT d.id, d.first_name, d.last_name, d.email, d.phone, s.name,
		       COALESCE(u.is_active, true), u.date_joined, d.consultation_fee, d.bio
		FROM doctors d
		JOIN specialties s ON s.id = d.specialty_id
		LEFT JOIN users u ON u.id = d.user_id
		ORDER BY d.id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: admin list: %w", err)
	}
	defer rows.Close()

	var out []*AdminDoctor
	for rows.Next() {
		var d AdminDoctor
		if err := rows.Scan(
			&d.ID,
			&d.FirstName,
			&d.LastName,
			&d.Email,
			&d.Phone,
			&d.Specialization,
			&d.IsActive,
			&d.DateJoined,
			&d.ConsultationFee,
			&d.Bio,
		); err != nil {
			return nil, fmt.Errorf("doctors: admin scan: %w", err)
		}
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: admin rows: %w", err)
	}
	return out, nil
}

// GetByID fetches one profile.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	return scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorColumns+doctorFrom+` WHERE d.id = $1`, id))
}

// GetByUserID fetches the profile linked to an account.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*Doctor, error) {
	return scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorColumns+doctorFrom+` WHERE d.user_id = $1`, userID))
}

// IDByEmail resolves a profile id from the doctor's email. Login responses
// include this id so the frontend can address doctor-scoped endpoints.
func (r *PostgresRepository) IDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM doctors WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("doctors: id by email: %w", err)
	}
	return id, nil
}

// Create inserts a profile. Availability defaults to an empty schedule.
func (r *PostgresRepository) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if d.Availability == nil {
		d.Availability = availability.NewSchedule()
	}
	availJSON, err := json.Marshal(d.Availability)
	if err != nil {
		return nil, fmt.Errorf("doctors: encode availability: %w", err)
	}
	query := `
		INSERT INTO doctors (user_id, first_name, last_name, email, phone, address,
			city, state, zip_code, specialty_id, availability, bio, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err = r.db.QueryRow(ctx, query,
		d.UserID,
		d.FirstName,
		d.LastName,
		d.Email,
		d.Phone,
		d.Address,
		d.City,
		d.State,
		d.ZipCode,
		d.SpecialtyID,
		availJSON,
		d.Bio,
		d.ConsultationFee,
	).Scan(&d.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("doctors: insert: %w", err)
	}
	return d, nil
}

// Update persists profile fields including the availability schedule.
func (r *PostgresRepository) Update(ctx context.Context, d *Doctor) error {
	availJSON, err := json.Marshal(d.Availability)
	if err != nil {
		return fmt.Errorf("doctors: encode availability: %w", err)
	}
	query := `
		UPDATE doctors
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6,
		    city = $7, state = $8, zip_code = $9, specialty_id = $10,
		    availability = $11, bio = $12, consultation_fee = $13
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		d.ID,
		d.FirstName,
		d.LastName,
		d.Email,
		d.Phone,
		d.Address,
		d.City,
		d.State,
		d.ZipCode,
		d.SpecialtyID,
		availJSON,
		d.Bio,
		d.ConsultationFee,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("doctors: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvailability replaces the stored schedule wholesale.
func (r *PostgresRepository) UpdateAvailability(ctx context.Context, id int64, sched availability.Schedule) error {
	availJSON, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("doctors: encode availability: %w", err)
	}
	tag, err := r.db.Exec(ctx, `UPDATE doctors SET availability = $2 WHERE id = $1`, id, availJSON)
	if err != nil {
		return fmt.Errorf("doctors: update availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the profile. Appointments referencing it cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("doctors: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
