package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/personalab/persona-platform/internal/middleware"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/pkg/logger"
)

// maxDocumentSize bounds one uploaded document (16MB).
const maxDocumentSize = 16 << 20

// DocumentHandler handles corpus upload endpoints.
type DocumentHandler struct {
	service *service.DocumentService
	logger  *logger.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *service.DocumentService, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{service: svc, logger: log}
}

// Upload handles POST /api/v1/personas/{name}/documents
// Expects a multipart form with one "file" part.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner := middleware.GetOwnerID(r.Context())
	name := chi.URLParam(r, "name")

	if err := middleware.ValidatePersonaName(name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || filename == "/" {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	contentType := documentContentType(header.Header.Get("Content-Type"), filename)

	if err := h.service.Upload(r.Context(), owner, name, filename, data, contentType); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"filename":     filename,
		"content_type": contentType,
		"bytes":        len(data),
	})
}

// documentContentType resolves the effective content type, falling back to
// the file extension when the part header is absent or generic.
func documentContentType(declared, filename string) string {
	declared = strings.TrimSpace(strings.Split(declared, ";")[0])
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return declared
	}
}
