package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/availability"
	"github.com/curatime/curatime/internal/observability/metrics"
	"github.com/curatime/curatime/internal/users"
	"github.com/curatime/curatime/pkg/logging"
)

// ConflictIndex reports the instants already booked for a doctor, so the
// public directory never offers a slot someone else holds. Implemented by
// the appointments repository.
type ConflictIndex interface {
	BookedTimes(ctx context.Context, doctorID int64) ([]time.Time, error)
}

// SpecialtyByName resolves the specialty named in admin forms.
type SpecialtyByName interface {
	IDByName(ctx context.Context, name string) (int64, error)
}

// Accounts is the slice of the user store the doctor console needs:
// provisioning, deactivating and removing the linked login account.
type Accounts interface {
	Create(ctx context.Context, u *users.User) (*users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	Update(ctx context.Context, u *users.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// Handler handles HTTP requests for the doctor directory and console.
type Handler struct {
	repo         Repository
	conflicts    ConflictIndex
	specialties  SpecialtyByName
	accounts     Accounts
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	previewCount int
	now          func() time.Time
}

// NewHandler creates a new doctors handler. previewCount bounds the slot
// preview attached to directory listings.
func NewHandler(repo Repository, conflicts ConflictIndex, specialties SpecialtyByName, accounts Accounts, m *metrics.BookingMetrics, logger *logging.Logger, previewCount int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if previewCount <= 0 {
		previewCount = 3
	}
	return &Handler{
		repo:         repo,
		conflicts:    conflicts,
		specialties:  specialties,
		accounts:     accounts,
		metrics:      m,
		logger:       logger,
		previewCount: previewCount,
		now:          time.Now,
	}
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

// directoryEntry is a doctor as patients see them: the profile plus the
// slots still open for booking.
type directoryEntry struct {
	*Doctor
	UpcomingSlots []availability.Slot `json:"upcoming_slots"`
}

func (h *Handler) upcomingFor(ctx context.Context, d *Doctor) ([]availability.Slot, error) {
	booked, err := h.conflicts.BookedTimes(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	slots := availability.Upcoming(d.Availability, h.now(), availability.NewSlotSet(booked...))
	if slots == nil {
		slots = []availability.Slot{}
	}
	return slots, nil
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request, list []*Doctor) {
	entries := make([]directoryEntry, 0, len(list))
	for _, d := range list {
		slots, err := h.upcomingFor(r.Context(), d)
		if err != nil {
			h.logger.Error("failed to compute open slots", "error", err, "doctor_id", d.ID)
			writeError(w, http.StatusInternalServerError, "could not list doctors")
			return
		}
		entries = append(entries, directoryEntry{Doctor: d, UpcomingSlots: availability.Preview(slots, h.previewCount)})
	}
	writeJSON(w, http.StatusOK, entries)
}

// List handles GET /doctors: the public directory, each entry carrying a
// short preview of open slots.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list doctors")
		return
	}
	h.listEntries(w, r, list)
}

// BySpecialty handles GET /doctors/specialty/{id}.
func (h *Handler) BySpecialty(w http.ResponseWriter, r *http.Request) {
	specialtyID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid specialty id")
		return
	}
	list, err := h.repo.ListBySpecialty(r.Context(), specialtyID)
	if err != nil {
		h.logger.Error("failed to list doctors by specialty", "error", err, "specialty_id", specialtyID)
		writeError(w, http.StatusInternalServerError, "could not list doctors")
		return
	}
	h.listEntries(w, r, list)
}

// Get handles GET /doctors/{id}: one profile with every open slot, so the
// booking page can render the full picker.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	d, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		writeError(w, http.StatusInternalServerError, "could not load doctor")
		return
	}
	slots, err := h.upcomingFor(r.Context(), d)
	if err != nil {
		h.logger.Error("failed to compute open slots", "error", err, "doctor_id", id)
		writeError(w, http.StatusInternalServerError, "could not load doctor")
		return
	}
	writeJSON(w, http.StatusOK, directoryEntry{Doctor: d, UpcomingSlots: slots})
}

func (h *Handler) sessionDoctor(w http.ResponseWriter, r *http.Request) *Doctor {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok || session.Role != auth.RoleDoctor {
		writeError(w, http.StatusUnauthorized, "doctor authentication required")
		return nil
	}
	d, err := h.repo.GetByUserID(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no doctor profile associated with this account")
			return nil
		}
		h.logger.Error("failed to load doctor profile", "error", err, "user_id", session.UserID)
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return nil
	}
	return d
}

// GetMe handles GET /doctors/me: the session doctor's own profile.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	d := h.sessionDoctor(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateMe handles PATCH /doctors/me: contact details, fee and the
// availability schedule. Availability is a full overwrite and must be
// valid, never partially applied.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	d := h.sessionDoctor(w, r)
	if d == nil {
		return
	}
	var req UpdateSelfRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var sched availability.Schedule
	if len(req.Availability) > 0 {
		var err error
		if sched, err = DecodeAvailability(req.Availability); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.ScheduleOnly() {
		// The editor saves the schedule on its own; overwrite that one
		// column rather than rewriting the whole profile row.
		if err := h.repo.UpdateAvailability(r.Context(), d.ID, sched); err != nil {
			h.logger.Error("failed to update availability", "error", err, "doctor_id", d.ID)
			writeError(w, http.StatusInternalServerError, "availability update failed")
			return
		}
		d.Availability = sched
		h.metrics.ObserveAvailabilityUpdate()
		h.logger.Info("availability updated", "doctor_id", d.ID, "slot_count", d.Availability.SlotCount())
		writeJSON(w, http.StatusOK, d)
		return
	}
	req.ApplyTo(d)
	if fee, clear, err := ParseFee(req.ConsultationFee); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidFee.Error())
		return
	} else if clear {
		d.ConsultationFee = nil
	} else if fee != nil {
		d.ConsultationFee = fee
	}
	if sched != nil {
		d.Availability = sched
	}
	if err := h.repo.Update(r.Context(), d); err != nil {
		h.logger.Error("failed to update doctor profile", "error", err, "doctor_id", d.ID)
		writeError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	if sched != nil {
		h.metrics.ObserveAvailabilityUpdate()
		h.logger.Info("availability updated", "doctor_id", d.ID, "slot_count", d.Availability.SlotCount())
	}
	writeJSON(w, http.StatusOK, d)
}
