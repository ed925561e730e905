package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/pkg/logger"
)

// PersonaHandler handles persona lifecycle endpoints.
type PersonaHandler struct {
	service *service.PersonaService
	logger  *logger.Logger
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(svc *service.PersonaService, log *logger.Logger) *PersonaHandler {
	return &PersonaHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/personas
func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())

	var req model.CreatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePersonaName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateDefinition(req.Tone, req.Domain, req.ResponseStyle, req.Goals); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Create(r.Context(), owner, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())

	resp, err := h.service.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/v1/personas/{name}
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Get(r.Context(), owner, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/v1/personas/{name}
func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateDefinition(req.Tone, req.Domain, req.ResponseStyle, req.Goals); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(r.Context(), owner, name, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
