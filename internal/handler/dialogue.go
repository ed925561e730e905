package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/pkg/logger"
)

// DialogueHandler handles two-persona dialogue endpoints.
type DialogueHandler struct {
	service *service.DialogueService
	logger  *logger.Logger
}

// NewDialogueHandler creates a new dialogue handler.
func NewDialogueHandler(svc *service.DialogueService, log *logger.Logger) *DialogueHandler {
	return &DialogueHandler{service: svc, logger: log}
}

// dialogueErrorResponse carries the partial transcript alongside the error
// when a dialogue aborts partway.
type dialogueErrorResponse struct {
	Error      string            `json:"error"`
	Transcript *model.Transcript `json:"transcript,omitempty"`
}

// Run handles POST /api/v1/dialogues
func (h *DialogueHandler) Run(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())

	var req model.DialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePersonaName(req.PersonaA); err != nil {
		writeError(w, http.StatusBadRequest, "persona_a: "+err.Error())
		return
	}
	if err := middleware.ValidatePersonaName(req.PersonaB); err != nil {
		writeError(w, http.StatusBadRequest, "persona_b: "+err.Error())
		return
	}
	if err := middleware.ValidateInput(req.Starter); err != nil {
		writeError(w, http.StatusBadRequest, "starter: "+err.Error())
		return
	}
	if err := middleware.ValidateRounds(req.Rounds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode != "" && req.Mode != model.ModeLastMessage && req.Mode != model.ModeTranscript {
		writeError(w, http.StatusBadRequest, "unknown dialogue mode")
		return
	}

	transcript, err := h.service.Run(r.Context(), owner, &req)
	if err != nil {
		var roundErr *service.RoundError
		if errors.As(err, &roundErr) {
			// Rounds completed before the failure are still returned.
			writeJSON(w, statusForError(roundErr.Err), &dialogueErrorResponse{
				Error:      roundErr.Error(),
				Transcript: transcript,
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transcript)
}
