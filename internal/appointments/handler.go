package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/doctors"
	"github.com/curatime/curatime/pkg/logging"
)

// recentLimit bounds the doctor dashboard's recent-bookings feed.
const recentLimit = 10

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	repo    Repository
	doctors ScheduleDirectory
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(service *Service, repo Repository, directory ScheduleDirectory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, repo: repo, doctors: directory, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeBookingError maps workflow failures onto distinct statuses, so the
// frontend can tell "slot taken" apart from plain validation errors.
func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, ErrSlotTaken.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, doctors.ErrNotFound):
		writeError(w, http.StatusNotFound, doctors.ErrNotFound.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, ErrForbidden.Error())
	case errors.Is(err, ErrPastDateTime),
		errors.Is(err, ErrMissingDateTime),
		errors.Is(err, ErrMissingDoctor),
		errors.Is(err, ErrInvalidDateTime),
		errors.Is(err, ErrSlotNotOffered),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrBadTransition),
		errors.Is(err, ErrNotCancellable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("appointment operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Session{}, false
	}
	return session, true
}

// Create handles POST /appointments: the patient booking workflow.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.service.Book(r.Context(), session.UserID, &req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListMine handles GET /appointments/client: the patient's own bookings.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	list, err := h.repo.ListByClient(r.Context(), session.UserID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "client_id", session.UserID)
		writeError(w, http.StatusInternalServerError, "could not list appointments")
		return
	}
	if list == nil {
		list = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Cancel handles DELETE /appointments/{id}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	if err := h.service.Cancel(r.Context(), session, id); err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "appointment cancelled"})
}

// Reschedule handles PATCH /appointments/{id}: a date_time change, status
// untouched.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.service.Reschedule(r.Context(), session, id, &req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) sessionDoctorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return 0, false
	}
	if session.Role != auth.RoleDoctor {
		writeError(w, http.StatusForbidden, "doctor access required")
		return 0, false
	}
	d, err := h.doctors.GetByUserID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no doctor profile associated with this account")
		return 0, false
	}
	return d.ID, true
}

// ListForDoctor handles GET /appointments/doctor: the session doctor's
// bookings.
func (h *Handler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.sessionDoctorID(w, r)
	if !ok {
		return
	}
	list, err := h.repo.ListByDoctor(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "doctor_id", doctorID)
		writeError(w, http.StatusInternalServerError, "could not list appointments")
		return
	}
	if list == nil {
		list = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// RecentForDoctor handles GET /appointments/doctor/recent.
func (h *Handler) RecentForDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.sessionDoctorID(w, r)
	if !ok {
		return
	}
	list, err := h.repo.RecentByDoctor(r.Context(), doctorID, recentLimit)
	if err != nil {
		h.logger.Error("failed to list recent appointments", "error", err, "doctor_id", doctorID)
		writeError(w, http.StatusInternalServerError, "could not list appointments")
		return
	}
	if list == nil {
		list = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}

// UpdateStatus handles PATCH /appointments/{id}/status, for the owning
// doctor or an admin.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.service.UpdateStatus(r.Context(), session, id, req.Status)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// AdminList handles GET /admin/appointments.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list appointments")
		return
	}
	if list == nil {
		list = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, list)
}
