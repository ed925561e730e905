package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

// ExportService assembles a persona's full footprint into one archive:
// the live definition, every backup snapshot, the interaction log, and the
// raw ingested documents, each under a stable internal path.
type ExportService struct {
	personas     *store.PersonaStore
	interactions *store.InteractionLog
	documents    *store.DocumentStore
	logger       *logger.Logger
}

// NewExportService creates a new export service.
func NewExportService(
	personas *store.PersonaStore,
	interactions *store.InteractionLog,
	documents *store.DocumentStore,
	log *logger.Logger,
) *ExportService {
	return &ExportService{
		personas:     personas,
		interactions: interactions,
		documents:    documents,
		logger:       log,
	}
}

// WriteArchive streams the zip archive for one persona to w.
func (s *ExportService) WriteArchive(ctx context.Context, owner, name string, w io.Writer) error {
	p, err := s.personas.Get(owner, name)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	if err := s.addJSON(zw, "persona.json", p); err != nil {
		return err
	}

	backups, err := s.personas.ListBackups(owner, name)
	if err != nil {
		return err
	}
	for _, backup := range backups {
		snapshot, err := s.personas.ReadBackup(owner, name, backup.Name)
		if err != nil {
			s.logger.Warn("skipping unreadable backup in export",
				zap.String("backup", backup.Name), zap.Error(err))
			continue
		}
		if err := s.addJSON(zw, "backups/"+backup.Name, snapshot); err != nil {
			return err
		}
	}

	entries, err := s.interactions.Export(owner, name)
	if err != nil {
		return err
	}
	lw, err := zw.Create("interactions.jsonl")
	if err != nil {
		return fmt.Errorf("failed to add log to archive: %w", err)
	}
	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to encode log entry: %w", err)
		}
		if _, err := lw.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write log entry: %w", err)
		}
	}

	docs, err := s.documents.List(owner, name)
	if err != nil {
		return err
	}
	for _, filename := range docs {
		data, err := s.documents.Read(owner, name, filename)
		if err != nil {
			s.logger.Warn("skipping unreadable document in export",
				zap.String("document", filename), zap.Error(err))
			continue
		}
		dw, err := zw.Create("documents/" + filename)
		if err != nil {
			return fmt.Errorf("failed to add document to archive: %w", err)
		}
		if _, err := dw.Write(data); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
	}

	return zw.Close()
}

func (s *ExportService) addJSON(zw *zip.Writer, path string, v any) error {
	w, err := zw.Create(path)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
