package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/events"
	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/prompt"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
	"github.com/personalab/persona-platform/pkg/metrics"
)

// AskService runs the retrieval-augmented persona resolution pipeline:
// resolve persona, retrieve context, compose, generate, log.
type AskService struct {
	personas     *store.PersonaStore
	interactions *store.InteractionLog
	index        index.Index
	llm          llm.Client
	publisher    *events.Publisher
	logger       *logger.Logger
	defaultModel string
	topK         int
}

// NewAskService creates a new ask service.
func NewAskService(
	personas *store.PersonaStore,
	interactions *store.InteractionLog,
	idx index.Index,
	client llm.Client,
	publisher *events.Publisher,
	log *logger.Logger,
	defaultModel string,
	topK int,
) *AskService {
	return &AskService{
		personas:     personas,
		interactions: interactions,
		index:        idx,
		llm:          client,
		publisher:    publisher,
		logger:       log,
		defaultModel: defaultModel,
		topK:         topK,
	}
}

// Ask answers one query against a persona.
func (s *AskService) Ask(ctx context.Context, owner, personaName string, req *model.AskRequest) (*model.AskResponse, error) {
	return s.ask(ctx, owner, personaName, req, nil)
}

// AskStream answers one query, relaying generation fragments to the callback.
func (s *AskService) AskStream(ctx context.Context, owner, personaName string, req *model.AskRequest, callback llm.StreamCallback) (*model.AskResponse, error) {
	return s.ask(ctx, owner, personaName, req, callback)
}

func (s *AskService) ask(ctx context.Context, owner, personaName string, req *model.AskRequest, callback llm.StreamCallback) (*model.AskResponse, error) {
	p, err := s.personas.Get(owner, personaName)
	if err != nil {
		return nil, err
	}

	// Retrieval failure is not fatal: answer without grounding.
	passages, err := s.index.Query(ctx, owner, personaName, req.Input, s.topK)
	if err != nil {
		s.logger.Warn("document index query failed, answering without context",
			zap.String("owner_id", owner), zap.String("persona", personaName), zap.Error(err))
		passages = nil
	}

	input := prompt.WrapWithContext(req.Input, passages)
	contextUsed := input != req.Input
	promptText := prompt.Compose(*p, input)

	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}

	genReq := &llm.GenerationRequest{Model: modelName, Prompt: promptText}
	var result *llm.GenerationResult
	if callback != nil {
		result, err = s.llm.GenerateStream(ctx, genReq, callback)
	} else {
		result, err = s.llm.Generate(ctx, genReq)
	}
	if err != nil {
		// A failed generation produces no log entry.
		metrics.RecordGeneration(modelName, "error", 0, 0)
		return nil, err
	}

	metrics.RecordGeneration(modelName, "success", float64(result.LatencyMs)/1000.0, result.Fragments)

	s.record(ctx, owner, personaName, modelName, req.Input, result.Text)

	return &model.AskResponse{
		PersonaName: personaName,
		Response:    result.Text,
		ContextUsed: contextUsed,
		Model:       modelName,
		LatencyMs:   result.LatencyMs,
	}, nil
}

// record appends to the interaction log and publishes the side-channel
// event. Neither failure may surface to the caller.
func (s *AskService) record(ctx context.Context, owner, personaName, modelName, input, response string) {
	if err := s.interactions.Append(owner, personaName, input, response); err != nil {
		s.logger.Warn("failed to log interaction",
			zap.String("owner_id", owner), zap.String("persona", personaName), zap.Error(err))
	} else {
		metrics.InteractionsTotal.WithLabelValues(owner).Inc()
	}

	s.publisher.Publish(ctx, &model.InteractionEvent{
		ID:          uuid.Must(uuid.NewV7()).String(),
		OwnerID:     owner,
		PersonaName: personaName,
		Model:       modelName,
		InputLen:    len(input),
		ResponseLen: len(response),
		CreatedAt:   time.Now(),
	})
}

// Interactions exports the full log stream for one persona, verifying the
// persona exists for the owner first so foreign names stay invisible.
func (s *AskService) Interactions(ctx context.Context, owner, personaName string) (*model.ListInteractionsResponse, error) {
	if _, err := s.personas.Get(owner, personaName); err != nil {
		return nil, err
	}

	entries, err := s.interactions.Export(owner, personaName)
	if err != nil {
		return nil, err
	}

	return &model.ListInteractionsResponse{
		Entries: entries,
		Total:   len(entries),
	}, nil
}
