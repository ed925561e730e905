package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

// DocumentService handles corpus uploads: the raw file is retained for
// export and the content is handed to the document index.
type DocumentService struct {
	personas  *store.PersonaStore
	documents *store.DocumentStore
	index     index.Index
	logger    *logger.Logger
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	personas *store.PersonaStore,
	documents *store.DocumentStore,
	idx index.Index,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		personas:  personas,
		documents: documents,
		index:     idx,
		logger:    log,
	}
}

// Upload adds one document to a persona's corpus.
func (s *DocumentService) Upload(ctx context.Context, owner, personaName, filename string, data []byte, contentType string) error {
	if _, err := s.personas.Get(owner, personaName); err != nil {
		return err
	}

	if !index.SupportedContentType(contentType) {
		return index.ErrUnsupportedFormat
	}

	if err := s.documents.Save(owner, personaName, filename, data); err != nil {
		return err
	}

	if err := s.index.Ingest(ctx, owner, personaName, data, contentType); err != nil {
		// The retained copy exists only to mirror the indexed corpus, so
		// a failed ingest takes the saved file with it.
		if delErr := s.documents.Delete(owner, personaName, filename); delErr != nil {
			s.logger.Warn("failed to remove unindexed document",
				zap.String("owner_id", owner), zap.String("persona", personaName),
				zap.String("filename", filename), zap.Error(delErr))
		}
		return err
	}

	s.logger.Info("document ingested",
		zap.String("owner_id", owner),
		zap.String("persona", personaName),
		zap.String("filename", filename),
		zap.Int("bytes", len(data)))

	return nil
}
