package doctors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/curatime/curatime/internal/auth"
	"github.com/curatime/curatime/internal/specialties"
	"github.com/curatime/curatime/internal/users"
)

// AdminList handles GET /admin/doctors: every profile with account state.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.AdminList(r.Context())
	if err != nil {
		h.logger.Error("failed to list doctors for admin", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list doctors")
		return
	}
	if list == nil {
		list = []*AdminDoctor{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) resolveSpecialty(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := h.specialties.IDByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, specialties.ErrNotFound) {
			writeError(w, http.StatusBadRequest, ErrUnknownSpecialty.Error())
			return 0, false
		}
		h.logger.Error("failed to resolve specialty", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, "could not resolve specialty")
		return 0, false
	}
	return id, true
}

// AdminCreate handles POST /admin/doctors: provisions the login account and
// the profile together. If the profile insert fails the account is removed
// again so no orphan doctor login survives.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	var req AdminUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	specialtyID, ok := h.resolveSpecialty(w, r, req.Specialization)
	if !ok {
		return
	}
	fee, _, err := ParseFee(req.ConsultationFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidFee.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid password")
		return
	}
	account, err := h.accounts.Create(r.Context(), &users.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         auth.RoleDoctor,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, users.ErrEmailTaken.Error())
			return
		}
		h.logger.Error("failed to create doctor account", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create doctor")
		return
	}
	created, err := h.repo.Create(r.Context(), &Doctor{
		UserID:          &account.ID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		SpecialtyID:     specialtyID,
		Bio:             req.Bio,
		ConsultationFee: fee,
	})
	if err != nil {
		if delErr := h.accounts.Delete(r.Context(), account.ID); delErr != nil {
			h.logger.Error("failed to roll back doctor account", "error", delErr, "user_id", account.ID)
		}
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, ErrEmailTaken.Error())
			return
		}
		h.logger.Error("failed to create doctor profile", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create doctor")
		return
	}
	h.logger.Info("doctor created", "doctor_id", created.ID, "user_id", account.ID)
	writeJSON(w, http.StatusCreated, created)
}

// AdminUpdate handles PUT /admin/doctors/{id}. Blank fields keep their
// stored values; the linked account's identity fields follow the profile.
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid doctor id")
		return
	}
	var req AdminUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, ErrNotFound.Error())
			return
		}
		h.logger.Error("failed to load doctor", "error", err, "doctor_id", id)
		writeError(w, http.StatusInternalServerError, "could not update doctor")
		return
	}
	if req.FirstName != "" {
		d.FirstName = req.FirstName
	}
	if req.LastName != "" {
		d.LastName = req.LastName
	}
	if req.Email != "" {
		d.Email = req.Email
	}
	if req.Phone != "" {
		d.Phone = req.Phone
	}
	if req.Bio != "" {
		d.Bio = req.Bio
	}
	if req.Specialization != "" {
		specialtyID, ok := h.resolveSpecialty(w, r, req.Specialization)
		if !ok {
			return
		}
		d.SpecialtyID = specialtyID
	}
	if fee, clear, err := ParseFee(req.ConsultationFee); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidFee.Error())
		return
	} else if clear {
		d.ConsultationFee = nil
	} else if fee != nil {
		d.ConsultationFee = fee
	}
	if err := h.repo.Update(r.Context(), d); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, ErrEmailTaken.Error())
			return
		}
		h.logger.Error("failed to update doctor", "error", err, "doctor_id", id)
		writeError(w, http.StatusInternalServerError, "could not update doctor")
		return
	}
	if d.UserID != nil {
		account, err := h.accounts.GetByID(r.Context(), *d.UserID)
		if err == nil {
			account.Email = d.Email
			account.FirstName = d.FirstName
			account.LastName = d.LastName
			if err := h.accounts.Update(r.Context(), account); err != nil {
				h.logger.Error("failed to sync doctor account", "error", err, "user_id", *d.UserID)
			}
		}
	}
	writeJSON(w, http.StatusOK, d)
}

// ToggleStatus handles PATCH /admin/doctors/{id}/toggle-status: flips the
// linked account's active flag. Inactive doctors cannot log in but their
// profile stays in the directory.
func (h *Handler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusInternalServerError, "could not toggle status")
		return
	}
	if d.UserID == nil {
		writeError(w, http.StatusBadRequest, "doctor has no login account")
		return
	}
	account, err := h.accounts.GetByID(r.Context(), *d.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "doctor account not found")
		return
	}
	if err := h.accounts.SetActive(r.Context(), account.ID, !account.IsActive); err != nil {
		h.logger.Error("failed to toggle doctor status", "error", err, "user_id", account.ID)
		writeError(w, http.StatusInternalServerError, "could not toggle status")
		return
	}
	h.logger.Info("doctor status toggled", "doctor_id", id, "is_active", !account.IsActive)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": !account.IsActive})
}

// AdminDelete handles DELETE /admin/doctors/{id}. Removing the login
// account cascades to the profile and its appointments.
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusInternalServerError, "could not delete doctor")
		return
	}
	if d.UserID != nil {
		err = h.accounts.Delete(r.Context(), *d.UserID)
	} else {
		err = h.repo.Delete(r.Context(), id)
	}
	if err != nil {
		h.logger.Error("failed to delete doctor", "error", err, "doctor_id", id)
		writeError(w, http.StatusInternalServerError, "could not delete doctor")
		return
	}
	h.logger.Info("doctor deleted", "doctor_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "doctor deleted"})
}
