package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/pkg/logger"
	"github.com/personalab/persona-platform/pkg/metrics"
)

// AskHandler handles persona query endpoints, plain JSON and SSE.
type AskHandler struct {
	service *service.AskService
	logger  *logger.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(svc *service.AskService, log *logger.Logger) *AskHandler {
	return &AskHandler{service: svc, logger: log}
}

// Ask handles POST /api/v1/personas/{name}/ask
// When the request sets stream=true the response is an SSE stream of token
// events followed by a done event; otherwise a single JSON body.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateInput(req.Input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Stream {
		h.askStream(w, r, owner, name, &req)
		return
	}

	resp, err := h.service.Ask(r.Context(), owner, name, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AskHandler) askStream(w http.ResponseWriter, r *http.Request, owner, name string, req *model.AskRequest) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	resp, err := h.service.AskStream(ctx, owner, name, req,
		func(fragment string, index int) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			return sendSSEEvent(w, flusher, "token", &model.TokenEvent{
				Token: fragment,
				Index: index,
			})
		})

	if err != nil {
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    errorCode(err),
			Message: messageForError(err),
		})
		return
	}

	sendSSEEvent(w, flusher, "done", resp)
}

// errorCode names the failure class for stream consumers, which have no
// HTTP status to inspect.
func errorCode(err error) string {
	switch statusForError(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusBadGateway:
		return "backend_error"
	default:
		return "internal_error"
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}

// Interactions handles GET /api/v1/personas/{name}/interactions
func (h *AskHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Interactions(r.Context(), owner, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
