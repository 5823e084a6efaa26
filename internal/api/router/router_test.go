package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curatime/curatime/internal/appointments"
	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/doctors"
	"github.com/curatime/curatime/internal/specialties"
	"github.com/curatime/curatime/internal/users"
)

func testRouter(t *testing.T, rate float64, burst int) (http.Handler, *auth.TokenManager) {
	t.Helper()

	tokens := auth.NewTokenManager("router-test-secret", time.Hour, 24*time.Hour)
	usersHandler := users.NewHandler(users.NewInMemoryRepository(), tokens, nil, nil, nil, nil, nil)

	cfg := &Config{
		Tokens:              tokens,
		UsersHandler:        usersHandler,
		DoctorsHandler:      &doctors.Handler{},
		SpecialtiesHandler:  &specialties.Handler{},
		AppointmentsHandler: &appointments.Handler{},
		LoginRatePerSecond:  rate,
		LoginBurst:          burst,
	}
	return New(cfg), tokens
}

func bearer(t *testing.T, tokens *auth.TokenManager, s auth.Session) string {
	t.Helper()
	pair, err := tokens.IssuePair(s)
	require.NoError(t, err)
	return "Bearer " + pair.Access
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := testRouter(t, 100, 10)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r, _ := testRouter(t, 100, 10)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/appointments"},
		{http.MethodGet, "/api/appointments/list"},
		{http.MethodPatch, "/api/client/update-profile"},
		{http.MethodGet, "/api/doctors/me"},
		{http.MethodGet, "/api/admin/doctors"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		require.Equalf(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestDoctorRoutesRejectPatients(t *testing.T) {
	r, tokens := testRouter(t, 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/me", nil)
	req.Header.Set("Authorization", bearer(t, tokens, auth.Session{UserID: 1, Role: auth.RolePatient}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesRejectDoctors(t *testing.T) {
	r, tokens := testRouter(t, 100, 10)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments/list", nil)
	req.Header.Set("Authorization", bearer(t, tokens, auth.Session{UserID: 2, Role: auth.RoleDoctor}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRouteIsRateLimited(t *testing.T) {
	r, _ := testRouter(t, 0.01, 1)

	body := `{"email":"nobody@curatime.test","password":"wrong"}`

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/client/login", strings.NewReader(body))
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	r.ServeHTTP(first, req)
	require.NotEqual(t, http.StatusTooManyRequests, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/client/login", strings.NewReader(body))
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	r.ServeHTTP(second, req)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}
