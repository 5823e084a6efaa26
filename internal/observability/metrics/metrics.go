package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking and scheduling flows.
// All observers are safe to call on a nil receiver so handlers can run
// without metrics wired (tests, one-off tools).
type BookingMetrics struct {
	bookingsCreated     *prometheus.CounterVec
	bookingConflicts    prometheus.Counter
	cancellations       *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	availabilityUpdates prometheus.Counter
	logins              *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "appointments",
			Name:      "created_total",
			Help:      "Total appointments booked",
		}, []string{"status"}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "appointments",
			Name:      "conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "appointments",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled",
		}, []string{"by"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions applied",
		}, []string{"to"}),
		availabilityUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "availability",
			Name:      "updates_total",
			Help:      "Doctor availability schedule overwrites",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curatime",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.bookingsCreated,
		m.bookingConflicts,
		m.cancellations,
		m.statusTransitions,
		m.availabilityUpdates,
		m.logins,
	)
	return m
}

func (m *BookingMetrics) ObserveBookingCreated(status string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}

func (m *BookingMetrics) ObserveCancellation(by string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(by).Inc()
}

func (m *BookingMetrics) ObserveStatusTransition(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}

func (m *BookingMetrics) ObserveAvailabilityUpdate() {
	if m == nil {
		return
	}
	m.availabilityUpdates.Inc()
}

func (m *BookingMetrics) ObserveLogin(role, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}
