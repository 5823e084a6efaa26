package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/doctors"
	"github.com/curatime/curatime/pkg/logging"
)

const (
	monthlyWindow = 6
	activityFeed  = 10
)

// DoctorResolver maps the session account onto its doctor profile.
type DoctorResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*doctors.Doctor, error)
}

// Handler provides the dashboard endpoints.
type Handler struct {
	repo    *Repository
	doctors DoctorResolver
	logger  *logging.Logger
	now     func() time.Time
}

// NewHandler creates a new stats handler.
func NewHandler(repo *Repository, resolver DoctorResolver, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, doctors: resolver, logger: logger, now: time.Now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type adminDashboard struct {
	*AdminStats
	MonthlyAppointments []MonthlyCount   `json:"monthly_appointments"`
	Specialties         []SpecialtyCount `json:"specialties"`
	RecentActivities    []Activity       `json:"recent_activities"`
}

// AdminDashboard handles GET /admin/stats.
func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	totals, err := h.repo.AdminStats(ctx, now)
	if err != nil {
		h.logger.Error("failed to load admin stats", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}
	monthly, err := h.repo.MonthlyAppointments(ctx, now, monthlyWindow)
	if err != nil {
		h.logger.Error("failed to load monthly stats", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}
	specialties, err := h.repo.SpecialtyDoctorCounts(ctx)
	if err != nil {
		h.logger.Error("failed to load specialty stats", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}
	activities, err := h.repo.RecentActivities(ctx, activityFeed)
	if err != nil {
		h.logger.Error("failed to load activity feed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}
	if specialties == nil {
		specialties = []SpecialtyCount{}
	}
	if activities == nil {
		activities = []Activity{}
	}
	writeJSON(w, http.StatusOK, adminDashboard{
		AdminStats:          totals,
		MonthlyAppointments: monthly,
		Specialties:         specialties,
		RecentActivities:    activities,
	})
}

// Activities handles GET /admin/dashboard/activities: just the feed, which
// the admin console polls more often than the full dashboard.
func (h *Handler) Activities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.repo.RecentActivities(r.Context(), activityFeed)
	if err != nil {
		h.logger.Error("failed to load activity feed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load activities")
		return
	}
	if activities == nil {
		activities = []Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": activities})
}

// DoctorDashboard handles GET /doctors/dashboard for the session doctor.
func (h *Handler) DoctorDashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session.Role != auth.RoleDoctor {
		writeError(w, http.StatusUnauthorized, "doctor authentication required")
		return
	}
	d, err := h.doctors.GetByUserID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no doctor profile associated with this account")
		return
	}
	s, err := h.repo.DoctorStats(r.Context(), d.ID, h.now())
	if err != nil {
		h.logger.Error("failed to load doctor stats", "error", err, "doctor_id", d.ID)
		writeError(w, http.StatusInternalServerError, "could not load statistics")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
