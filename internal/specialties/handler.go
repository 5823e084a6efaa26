package specialties

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/curatime/curatime/pkg/logging"
)

// Handler handles HTTP requests for specialties
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new specialties handler.
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
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

// List handles GET /specialties (public).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list specialties")
		return
	}
	if items == nil {
		items = []*Specialty{}
	}
	writeJSON(w, http.StatusOK, items)
}

// AdminList handles GET /admin/specialties, including doctor counts.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListWithCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to list specialties", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list specialties")
		return
	}
	if items == nil {
		items = []*Specialty{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /admin/specialties.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingName), errors.Is(err, ErrNameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to create specialty", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create specialty")
		}
		return
	}
	h.logger.Info("specialty created", "id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /admin/specialties/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid specialty id")
		return
	}
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.repo.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrMissingName), errors.Is(err, ErrNameTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update specialty", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, "failed to update specialty")
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /admin/specialties/{id}. Refused while doctors still
// reference the specialty.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid specialty id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInUse):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to delete specialty", "error", err, "id", id)
			writeError(w, http.StatusInternalServerError, "failed to delete specialty")
		}
		return
	}
	h.logger.Info("specialty deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "specialty deleted"})
}
