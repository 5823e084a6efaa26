package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminStats is the admin dashboard aggregate.
type AdminStats struct {
	TotalDoctors          int64 `json:"total_doctors"`
	TotalPatients         int64 `json:"total_patients"`
	TotalAppointments     int64 `json:"total_appointments"`
	TotalSpecialties      int64 `json:"total_specialties"`
	AppointmentsToday     int64 `json:"appointments_today"`
	PendingAppointments   int64 `json:"pending_appointments"`
	CompletedAppointments int64 `json:"completed_appointments"`
}

// DoctorStats is the doctor dashboard aggregate.
type DoctorStats struct {
	TotalPatients         int64 `json:"total_patients"`
	AppointmentsToday     int64 `json:"appointments_today"`
	AppointmentsThisWeek  int64 `json:"appointments_this_week"`
	CompletedAppointments int64 `json:"completed_appointments"`
}

// MonthlyCount is one month's booking volume, month formatted YYYY-MM.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// SpecialtyCount is the doctor headcount for one specialty.
type SpecialtyCount struct {
	Name         string `json:"name"`
	DoctorsCount int64  `json:"doctors_count"`
}

// Activity is one entry of the admin activity feed.
type Activity struct {
	ID         int64     `json:"id"`
	ClientName string    `json:"client_name"`
	DoctorName string    `json:"doctor_name"`
	Status     string    `json:"status"`
	DateTime   time.Time `json:"date_time"`
	CreatedAt  time.Time `json:"created_at"`
}

type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository queries dashboard aggregates from the database.
type Repository struct {
	db statsDB
}

// NewRepository creates a new stats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("stats: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db statsDB) *Repository {
	return &Repository{db: db}
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func weekBounds(now time.Time) (time.Time, time.Time) {
	dayStart, _ := dayBounds(now)
	// ISO week, Monday first.
	offset := (int(dayStart.Weekday()) + 6) % 7
	start := dayStart.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}

// AdminStats aggregates the platform-wide counters.
func (r *Repository) AdminStats(ctx context.Context, now time.Time) (*AdminStats, error) {
	s := &AdminStats{}
	dayStart, dayEnd := dayBounds(now)

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&s.TotalDoctors, `SELECT COUNT(*) FROM doctors`, nil},
		{&s.TotalPatients, `SELECT COUNT(*) FROM users WHERE user_role = 'client'`, nil},
		{&s.TotalAppointments, `SELECT COUNT(*) FROM appointments`, nil},
		{&s.TotalSpecialties, `SELECT COUNT(*) FROM specialties`, nil},
		{&s.AppointmentsToday, `SELECT COUNT(*) FROM appointments WHERE date_time >= $1 AND date_time < $2`, []any{dayStart, dayEnd}},
		{&s.PendingAppointments, `SELECT COUNT(*) FROM appointments WHERE status = 'pending'`, nil},
		{&s.CompletedAppointments, `SELECT COUNT(*) FROM appointments WHERE status = 'terminé'`, nil},
	}
	for _, c := range counts {
		if err := r.db.QueryRow(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: admin counts: %w", err)
		}
	}
	return s, nil
}

// MonthlyAppointments returns booking volume per month for the trailing
// window, zero-filled so the chart always shows every month.
func (r *Repository) MonthlyAppointments(ctx context.Context, now time.Time, months int) ([]MonthlyCount, error) {
	if months <= 0 {
		months = 6
	}
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	query := `
		SELECT to_char(date_trunc('month', date_time), 'YYYY-MM'), COUNT(*)
		FROM appointments
		WHERE date_time >= $1 AND date_time < $2
		GROUP BY 1
		ORDER BY 1`
	rows, err := r.db.Query(ctx, query, windowStart, now)
	if err != nil {
		return nil, fmt.Errorf("stats: monthly: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]int64)
	for rows.Next() {
		var month string
		var count int64
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("stats: monthly scan: %w", err)
		}
		byMonth[month] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: monthly rows: %w", err)
	}

	out := make([]MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		month := windowStart.AddDate(0, i, 0).Format("2006-01")
		out = append(out, MonthlyCount{Month: month, Count: byMonth[month]})
	}
	return out, nil
}

// SpecialtyDoctorCounts returns the doctor headcount per specialty.
func (r *Repository) SpecialtyDoctorCounts(ctx context.Context) ([]SpecialtyCount, error) {
	query := `
		SELECT s.name, COUNT(d.id)
		FROM specialties s
		LEFT JOIN doctors d ON d.specialty_id = s.id
		GROUP BY s.name
		ORDER BY s.name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("stats: specialty counts: %w", err)
	}
	defer rows.Close()

	var out []SpecialtyCount
	for rows.Next() {
		var c SpecialtyCount
		if err := rows.Scan(&c.Name, &c.DoctorsCount); err != nil {
			return nil, fmt.Errorf("stats: specialty scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: specialty rows: %w", err)
	}
	return out, nil
}

// RecentActivities returns the latest created appointments for the admin
// feed.
func (r *Repository) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT a.id, u.first_name || ' ' || u.last_name,
		       d.first_name || ' ' || d.last_name,
		       a.status, a.date_time, a.created_at
		FROM appointments a
		JOIN users u ON u.id = a.client_id
		JOIN doctors d ON d.id = a.doctor_id
		ORDER BY a.created_at DESC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("stats: activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.ClientName, &a.DoctorName, &a.Status, &a.DateTime, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("stats: activity scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: activity rows: %w", err)
	}
	return out, nil
}

// DoctorStats aggregates one doctor's dashboard counters.
func (r *Repository) DoctorStats(ctx context.Context, doctorID int64, now time.Time) (*DoctorStats, error) {
	s := &DoctorStats{}
	dayStart, dayEnd := dayBounds(now)
	weekStart, weekEnd := weekBounds(now)

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&s.TotalPatients, `SELECT COUNT(DISTINCT client_id) FROM appointments WHERE doctor_id = $1`, []any{doctorID}},
		{&s.AppointmentsToday, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND date_time >= $2 AND date_time < $3`, []any{doctorID, dayStart, dayEnd}},
		{&s.AppointmentsThisWeek, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND date_time >= $2 AND date_time < $3`, []any{doctorID, weekStart, weekEnd}},
		{&s.CompletedAppointments, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'terminé'`, []any{doctorID}},
	}
	for _, c := range counts {
		if err := r.db.QueryRow(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("stats: doctor counts: %w", err)
		}
	}
	return s, nil
}
