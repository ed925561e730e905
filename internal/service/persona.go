// Package service provides business logic for the persona platform.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
	"github.com/personalab/persona-platform/pkg/metrics"
)

// PersonaService handles persona lifecycle operations.
type PersonaService struct {
	store  *store.PersonaStore
	logger *logger.Logger
}

// NewPersonaService creates a new persona service.
func NewPersonaService(s *store.PersonaStore, log *logger.Logger) *PersonaService {
	return &PersonaService{store: s, logger: log}
}

// Create creates a new persona for the owner.
func (s *PersonaService) Create(ctx context.Context, owner string, req *model.CreatePersonaRequest) (*model.Persona, error) {
	p, err := s.store.Create(owner, req.PersonaDefinition)
	if err != nil {
		return nil, err
	}

	metrics.PersonasTotal.WithLabelValues(owner).Inc()
	s.logger.Info("persona created",
		zap.String("owner_id", owner), zap.String("persona", p.Name))

	return p, nil
}

// Get retrieves one persona, scoped to the owner.
func (s *PersonaService) Get(ctx context.Context, owner, name string) (*model.Persona, error) {
	return s.store.Get(owner, name)
}

// Update replaces a persona definition, preserving the previous version.
func (s *PersonaService) Update(ctx context.Context, owner, name string, req *model.UpdatePersonaRequest) (*model.Persona, error) {
	p, err := s.store.Update(owner, name, *req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("persona updated",
		zap.String("owner_id", owner), zap.String("persona", name), zap.Int("version", p.Version))

	return p, nil
}

// List returns all personas owned by the caller.
func (s *PersonaService) List(ctx context.Context, owner string) (*model.ListPersonasResponse, error) {
	personas, err := s.store.List(owner)
	if err != nil {
		return nil, err
	}

	return &model.ListPersonasResponse{
		Personas: personas,
		Total:    len(personas),
	}, nil
}
