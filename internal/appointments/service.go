package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/availability"
	"github.com/curatime/curatime/internal/doctors"
	"github.com/curatime/curatime/internal/observability/metrics"
	"github.com/curatime/curatime/pkg/logging"
)

// ScheduleDirectory is the slice of the doctor store the booking workflow
// needs: the published schedule to validate slots against, and the
// user-to-profile link for doctor-scoped authorization.
type ScheduleDirectory interface {
	GetByID(ctx context.Context, id int64) (*doctors.Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*doctors.Doctor, error)
}

// Service owns the booking workflow rules: slots must be published, in the
// future, and unclaimed; lifecycle moves forward only; cancellation is
// deletion and stops at terminé.
type Service struct {
	repo    Repository
	doctors ScheduleDirectory
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates the booking service.
func NewService(repo Repository, directory ScheduleDirectory, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, doctors: directory, metrics: m, logger: logger, now: time.Now}
}

func (s *Service) validateSlot(ctx context.Context, doctorID int64, instant time.Time) error {
	now := s.now()
	if !instant.After(now) {
		return ErrPastDateTime
	}
	doctor, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return err
	}
	slot := availability.SlotOf(instant)
	if !doctor.Availability.Has(slot.Date, slot.Time) {
		return ErrSlotNotOffered
	}
	return nil
}

// Book creates a pending appointment for the patient. Two patients racing
// for the same slot are adjudicated by the conflict index: the loser gets
// ErrSlotTaken and nothing is stored.
func (s *Service) Book(ctx context.Context, clientID int64, req *CreateRequest) (*Appointment, error) {
	instant, err := req.Resolve(s.now().Location())
	if err != nil {
		return nil, err
	}
	if err := s.validateSlot(ctx, req.DoctorID, instant); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, &Appointment{
		ClientID: clientID,
		DoctorID: req.DoctorID,
		DateTime: WireTime{instant},
		Status:   StatusPending,
		Notes:    req.Notes,
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBookingConflict()
			s.logger.Info("booking conflict", "doctor_id", req.DoctorID, "date_time", instant)
		}
		return nil, err
	}
	s.metrics.ObserveBookingCreated(string(StatusPending))
	s.logger.Info("appointment booked", "appointment_id", created.ID, "doctor_id", created.DoctorID, "client_id", clientID)
	return created, nil
}

func (s *Service) authorizeOwner(ctx context.Context, session auth.Session, a *Appointment) error {
	switch session.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RolePatient:
		if a.ClientID == session.UserID {
			return nil
		}
	case auth.RoleDoctor:
		d, err := s.doctors.GetByUserID(ctx, session.UserID)
		if err == nil && d.ID == a.DoctorID {
			return nil
		}
	}
	return ErrForbidden
}

// Cancel removes the appointment. Patients cancel their own, admins any;
// completed appointments are immutable history.
func (s *Service) Cancel(ctx context.Context, session auth.Session, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if session.Role == auth.RoleDoctor {
		return ErrForbidden
	}
	if err := s.authorizeOwner(ctx, session, a); err != nil {
		return err
	}
	if !a.Status.Cancellable() {
		return ErrNotCancellable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveCancellation(string(session.Role))
	s.logger.Info("appointment cancelled", "appointment_id", id, "by", session.Role)
	return nil
}

// RescheduleRequest carries the new slot in either wire form.
type RescheduleRequest struct {
	DateTime string `json:"date_time"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

func (r *RescheduleRequest) resolve(loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(r.DateTime) != "" {
		return parseWireTime(strings.TrimSpace(r.DateTime), loc)
	}
	if r.Date == "" || r.Time == "" {
		return time.Time{}, ErrMissingDateTime
	}
	return availability.Slot{Date: r.Date, Time: r.Time}.At(loc)
}

// Reschedule moves an appointment to a new published slot. Status is left
// untouched; completed appointments cannot move.
func (s *Service) Reschedule(ctx context.Context, session auth.Session, id int64, req *RescheduleRequest) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Role == auth.RoleDoctor {
		return nil, ErrForbidden
	}
	if err := s.authorizeOwner(ctx, session, a); err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted {
		return nil, ErrNotCancellable
	}
	instant, err := req.resolve(s.now().Location())
	if err != nil {
		return nil, err
	}
	if err := s.validateSlot(ctx, a.DoctorID, instant); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDateTime(ctx, id, instant); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.metrics.ObserveBookingConflict()
		}
		return nil, err
	}
	a.DateTime = WireTime{instant}
	s.logger.Info("appointment rescheduled", "appointment_id", id, "date_time", instant)
	return a, nil
}

// UpdateStatus applies a forward lifecycle transition, by the owning
// doctor or an admin.
func (s *Service) UpdateStatus(ctx context.Context, session auth.Session, id int64, raw string) (*Appointment, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Role == auth.RolePatient {
		return nil, ErrForbidden
	}
	if err := s.authorizeOwner(ctx, session, a); err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(status) {
		return nil, ErrBadTransition
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	s.metrics.ObserveStatusTransition(string(status))
	s.logger.Info("appointment status updated", "appointment_id", id, "status", status, "by", session.Role)
	return a, nil
}
