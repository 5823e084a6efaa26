package specialties

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository defines the interface for specialty storage
type Repository interface {
	List(ctx context.Context) ([]*Specialty, error)
	ListWithCounts(ctx context.Context) ([]*Specialty, error)
	GetByID(ctx context.Context, id int64) (*Specialty, error)
	GetByName(ctx context.Context, name string) (*Specialty, error)
	IDByName(ctx context.Context, name string) (int64, error)
	Create(ctx context.Context, req *UpsertRequest) (*Specialty, error)
	Update(ctx context.Context, id int64, req *UpsertRequest) (*Specialty, error)
	Delete(ctx context.Context, id int64) error
}

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository stores specialties in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("specialties: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db db) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all specialties ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Specialty, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, description FROM specialties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("specialties: list: %w", err)
	}
	defer rows.Close()

	var out []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("specialties: scan: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ListWithCounts returns all specialties with the number of doctors
// referencing each, for the admin listing.
func (r *PostgresRepository) ListWithCounts(ctx context.Context) ([]*Specialty, error) {
	query := `
		SELECT s.id, s.name, s.description, COUNT(d.id)
		FROM specialties s
		LEFT JOIN doctors d ON d.specialty_id = s.id
		GROUP BY s.id, s.name, s.description
		ORDER BY s.name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("specialties: list with counts: %w", err)
	}
	defer rows.Close()

	var out []*Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DoctorsCount); err != nil {
			return nil, fmt.Errorf("specialties: scan: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetByID fetches one specialty.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Specialty, error) {
	var s Specialty
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM specialties WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("specialties: get: %w", err)
	}
	return &s, nil
}

// GetByName fetches one specialty by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Specialty, error) {
	var s Specialty
	err := r.db.QueryRow(ctx, `SELECT id, name, description FROM specialties WHERE name = $1`, name).
		Scan(&s.ID, &s.Name, &s.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("specialties: get by name: %w", err)
	}
	return &s, nil
}

// IDByName resolves a specialty id from its name, case-insensitively, as
// admin forms submit the name rather than the id.
func (r *PostgresRepository) IDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM specialties WHERE lower(name) = lower($1)`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("specialties: id by name: %w", err)
	}
	return id, nil
}

// Create inserts a new specialty.
func (r *PostgresRepository) Create(ctx context.Context, req *UpsertRequest) (*Specialty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var s Specialty
	err := r.db.QueryRow(ctx,
		`INSERT INTO specialties (name, description) VALUES ($1, $2) RETURNING id, name, description`,
		req.Name, req.Description,
	).Scan(&s.ID, &s.Name, &s.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("specialties: insert: %w", err)
	}
	return &s, nil
}

// Update renames or re-describes a specialty.
func (r *PostgresRepository) Update(ctx context.Context, id int64, req *UpsertRequest) (*Specialty, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var s Specialty
	err := r.db.QueryRow(ctx,
		`UPDATE specialties SET name = $2, description = $3 WHERE id = $1 RETURNING id, name, description`,
		id, req.Name, req.Description,
	).Scan(&s.ID, &s.Name, &s.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("specialties: update: %w", err)
	}
	return &s, nil
}

// Delete removes a specialty. Deletion is refused while any doctor still
// references it.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM doctors WHERE specialty_id = $1`, id).Scan(&count); err != nil {
		return fmt.Errorf("specialties: count doctors: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d doctor(s)", ErrInUse, count)
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM specialties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("specialties: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
