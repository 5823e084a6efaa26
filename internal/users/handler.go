package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/observability/metrics"
	"github.com/curatime/curatime/pkg/logging"
)

// DoctorDirectory resolves the doctor profile linked to a doctor account.
// Implemented by the doctors repository.
type DoctorDirectory interface {
	IDByEmail(ctx context.Context, email string) (int64, error)
}

// ResetMailer delivers password-reset verification codes.
type ResetMailer interface {
	SendResetCode(ctx context.Context, toEmail, toName, code string) error
}

// Handler handles HTTP requests for accounts and sessions
type Handler struct {
	repo    Repository
	tokens  *auth.TokenManager
	codes   *auth.ResetCodeStore
	mailer  ResetMailer
	doctors DoctorDirectory
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewHandler creates a new users handler.
func NewHandler(repo Repository, tokens *auth.TokenManager, codes *auth.ResetCodeStore, mailer ResetMailer, doctors DoctorDirectory, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, tokens: tokens, codes: codes, mailer: mailer, doctors: doctors, metrics: m, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Register handles POST /register. Role defaults to patient.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := req.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrMissingPassword.Error())
		return
	}
	user := &User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Address:      req.Address,
		Gender:       req.Gender,
		Role:         role,
		IsStaff:      role == auth.RoleAdmin,
		PasswordHash: hash,
	}
	created, err := h.repo.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, ErrEmailTaken.Error())
			return
		}
		h.logger.Error("failed to register user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.logger.Info("user registered", "user_id", created.ID, "role", created.Role)
	writeJSON(w, http.StatusCreated, created)
}

type loginResponse struct {
	*User
	DoctorID int64  `json:"doctor_id,omitempty"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, role auth.Role) (*User, *loginResponse) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil
	}
	user, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil || user.Role != role {
		h.metrics.ObserveLogin(string(role), "bad_credentials")
		writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return nil, nil
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		h.metrics.ObserveLogin(string(role), "bad_credentials")
		writeError(w, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return nil, nil
	}
	if !user.IsActive {
		h.metrics.ObserveLogin(string(role), "inactive")
		writeError(w, http.StatusForbidden, ErrInactiveAccount.Error())
		return nil, nil
	}
	pair, err := h.tokens.IssuePair(auth.Session{UserID: user.ID, Role: user.Role})
	if err != nil {
		h.logger.Error("failed to issue tokens", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "login failed")
		return nil, nil
	}
	h.metrics.ObserveLogin(string(role), "success")
	return user, &loginResponse{User: user, Access: pair.Access, Refresh: pair.Refresh}
}

// ClientLogin handles POST /client/login.
func (h *Handler) ClientLogin(w http.ResponseWriter, r *http.Request) {
	user, resp := h.login(w, r, auth.RolePatient)
	if resp == nil {
		return
	}
	h.logger.Info("patient logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, resp)
}

// AdminLogin handles POST /admin/login.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	user, resp := h.login(w, r, auth.RoleAdmin)
	if resp == nil {
		return
	}
	h.logger.Info("admin logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, resp)
}

// DoctorLogin handles POST /doctors/login. The response carries the linked
// doctor profile id; an account with no profile cannot log in.
func (h *Handler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	user, resp := h.login(w, r, auth.RoleDoctor)
	if resp == nil {
		return
	}
	doctorID, err := h.doctors.IDByEmail(r.Context(), user.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "no doctor profile associated with this account")
		return
	}
	resp.DoctorID = doctorID
	h.logger.Info("doctor logged in", "user_id", user.ID, "doctor_id", doctorID)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile handles PATCH /client/update-profile for the session user.
// Empty fields are left untouched.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.repo.GetByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	req.ApplyTo(user)
	if err := h.repo.Update(r.Context(), user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, ErrEmailTaken.Error())
			return
		}
		h.logger.Error("failed to update profile", "error", err, "user_id", session.UserID)
		writeError(w, http.StatusInternalServerError, "profile update failed")
		return
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrMissingPassword.Error())
			return
		}
		if err := h.repo.UpdatePassword(r.Context(), session.UserID, hash); err != nil {
			h.logger.Error("failed to update password", "error", err, "user_id", session.UserID)
			writeError(w, http.StatusInternalServerError, "profile update failed")
			return
		}
	}
	writeJSON(w, http.StatusOK, user)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /client/forgot-password: issues a short-lived
// verification code and mails it. Patients only.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	user, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "no account with this email")
		return
	}
	if user.Role != auth.RolePatient {
		writeError(w, http.StatusForbidden, "password reset is reserved for patients")
		return
	}
	code, err := h.codes.Issue(r.Context(), user.Email)
	if err != nil {
		h.logger.Error("failed to issue reset code", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue verification code")
		return
	}
	if err := h.mailer.SendResetCode(r.Context(), user.Email, user.FullName(), code); err != nil {
		h.logger.Error("failed to send reset code", "error", err)
		writeError(w, http.StatusInternalServerError, "could not send verification code")
		return
	}
	h.logger.Info("reset code issued", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type verifyCodeRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// VerifyCode handles POST /client/verify-code: checks the code and sets the
// new password.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "email, code and new_password are required")
		return
	}
	user, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusNotFound, "no account with this email")
		return
	}
	if user.Role != auth.RolePatient {
		writeError(w, http.StatusForbidden, "password reset is reserved for patients")
		return
	}
	if err := h.codes.Verify(r.Context(), user.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrCodeExpired), errors.Is(err, auth.ErrCodeMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to verify reset code", "error", err)
			writeError(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrMissingPassword.Error())
		return
	}
	if err := h.repo.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("failed to reset password", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "password reset failed")
		return
	}
	h.logger.Info("password reset", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "password reset successfully"})
}
