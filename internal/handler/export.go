package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/pkg/logger"
)

// ExportHandler handles persona archive downloads.
type ExportHandler struct {
	service *service.ExportService
	logger  *logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{service: svc, logger: log}
}

// Export handles GET /api/v1/personas/{name}/export
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The archive is assembled in full before any byte goes on the wire,
	// so failures still map to clean error statuses.
	var buf bytes.Buffer
	if err := h.service.WriteArchive(r.Context(), owner, name, &buf); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", archiveFilename(name)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("archive download interrupted",
			zap.String("owner_id", owner), zap.String("persona", name), zap.Error(err))
	}
}

// archiveFilename derives a safe download name from the persona name.
func archiveFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ' ':
			return '_'
		}
		return r
	}, name)
	return sanitized + "_export.zip"
}
