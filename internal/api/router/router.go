package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/curatime/curatime/internal/appointments"
	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/doctors"
	httpmiddleware "github.com/curatime/curatime/internal/http/middleware"
	"github.com/curatime/curatime/internal/notify"
	"github.com/curatime/curatime/internal/specialties"
	"github.com/curatime/curatime/internal/stats"
	"github.com/curatime/curatime/internal/users"
	"github.com/curatime/curatime/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	Tokens              *auth.TokenManager
	UsersHandler        *users.Handler
	DoctorsHandler      *doctors.Handler
	SpecialtiesHandler  *specialties.Handler
	AppointmentsHandler *appointments.Handler
	StatsHandler        *stats.Handler
	NotifyHandler       *notify.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
	LoginRatePerSecond  float64
	LoginBurst          int
}

// New creates a Chi router with all routes configured. The /api layout
// mirrors the paths the frontend already calls.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	loginLimit := httpmiddleware.RateLimit(cfg.LoginRatePerSecond, cfg.LoginBurst)
	requireSession := httpmiddleware.SessionAuth(cfg.Tokens)

	r.Route("/api", func(api chi.Router) {
		// Public surface: registration, logins, directory browsing.
		api.Post("/register", cfg.UsersHandler.Register)
		api.With(loginLimit).Post("/client/login", cfg.UsersHandler.ClientLogin)
		api.With(loginLimit).Post("/admin/login", cfg.UsersHandler.AdminLogin)
		api.With(loginLimit).Post("/doctors/login", cfg.UsersHandler.DoctorLogin)
		api.With(loginLimit).Post("/client/forgot-password", cfg.UsersHandler.ForgotPassword)
		api.With(loginLimit).Post("/client/verify-code", cfg.UsersHandler.VerifyCode)

		api.Get("/specialties", cfg.SpecialtiesHandler.List)
		api.Get("/doctors", cfg.DoctorsHandler.List)
		api.Get("/doctors/by-specialty/{id}", cfg.DoctorsHandler.BySpecialty)

		if cfg.NotifyHandler != nil {
			api.Post("/support/contact", cfg.NotifyHandler.Contact)
		}

		// Patient surface.
		api.Group(func(authed chi.Router) {
			authed.Use(requireSession)

			authed.Patch("/client/update-profile", cfg.UsersHandler.UpdateProfile)
			authed.Put("/client/update-profile", cfg.UsersHandler.UpdateProfile)

			authed.Post("/appointments", cfg.AppointmentsHandler.Create)
			authed.Get("/appointments/list", cfg.AppointmentsHandler.ListMine)
			authed.Patch("/appointments/update/{id}", cfg.AppointmentsHandler.Reschedule)
			authed.Delete("/appointments/{id}/delete", cfg.AppointmentsHandler.Cancel)
		})

		// Doctor self-service surface.
		api.Group(func(doctor chi.Router) {
			doctor.Use(requireSession, httpmiddleware.RequireRole(auth.RoleDoctor))

			doctor.Get("/doctors/me", cfg.DoctorsHandler.GetMe)
			doctor.Patch("/doctors/me", cfg.DoctorsHandler.UpdateMe)
			doctor.Get("/doctors/appointment", cfg.AppointmentsHandler.ListForDoctor)
			doctor.Get("/doctors/appointments/recent", cfg.AppointmentsHandler.RecentForDoctor)
			doctor.Patch("/doctors/appointments/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
			if cfg.StatsHandler != nil {
				doctor.Get("/doctors/dashboard/stats", cfg.StatsHandler.DoctorDashboard)
			}
		})

		api.Get("/doctors/{id}", cfg.DoctorsHandler.Get)

		// Admin console.
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(requireSession, httpmiddleware.RequireRole(auth.RoleAdmin))

			admin.Get("/doctors", cfg.DoctorsHandler.AdminList)
			admin.Post("/doctors", cfg.DoctorsHandler.AdminCreate)
			admin.Put("/doctors/{id}", cfg.DoctorsHandler.AdminUpdate)
			admin.Delete("/doctors/{id}", cfg.DoctorsHandler.AdminDelete)
			admin.Patch("/doctors/{id}/toggle-status", cfg.DoctorsHandler.ToggleStatus)

			admin.Get("/specialties", cfg.SpecialtiesHandler.AdminList)
			admin.Post("/specialties", cfg.SpecialtiesHandler.Create)
			admin.Put("/specialties/{id}", cfg.SpecialtiesHandler.Update)
			admin.Delete("/specialties/{id}", cfg.SpecialtiesHandler.Delete)

			admin.Get("/appointments/list", cfg.AppointmentsHandler.AdminList)
			admin.Patch("/appointments/update/{id}", cfg.AppointmentsHandler.UpdateStatus)

			if cfg.StatsHandler != nil {
				admin.Get("/dashboard/stats", cfg.StatsHandler.AdminDashboard)
				admin.Get("/dashboard/activities", cfg.StatsHandler.Activities)
			}
		})
	})

	return r
}
