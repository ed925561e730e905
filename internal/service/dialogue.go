package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/prompt"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
	"github.com/personalab/persona-platform/pkg/metrics"
)

// RoundError reports which dialogue round failed and why. The transcript
// accumulated before the failure is still returned to the caller.
type RoundError struct {
	Round   int
	Speaker string
	Err     error
}

func (e *RoundError) Error() string {
	return fmt.Sprintf("dialogue round %d (%s) failed: %v", e.Round, e.Speaker, e.Err)
}

func (e *RoundError) Unwrap() error {
	return e.Err
}

// DialogueService drives fixed-round two-persona conversations.
type DialogueService struct {
	personas     *store.PersonaStore
	interactions *store.InteractionLog
	llm          llm.Client
	logger       *logger.Logger
	defaultModel string
}

// NewDialogueService creates a new dialogue service.
func NewDialogueService(
	personas *store.PersonaStore,
	interactions *store.InteractionLog,
	client llm.Client,
	log *logger.Logger,
	defaultModel string,
) *DialogueService {
	return &DialogueService{
		personas:     personas,
		interactions: interactions,
		llm:          client,
		logger:       log,
		defaultModel: defaultModel,
	}
}

// Run alternates the two personas for the requested number of rounds,
// starting with persona A speaking to the starter text. Rounds run strictly
// sequentially: each round's input is the previous round's output.
func (s *DialogueService) Run(ctx context.Context, owner string, req *model.DialogueRequest) (*model.Transcript, error) {
	personaA, err := s.personas.Get(owner, req.PersonaA)
	if err != nil {
		return nil, err
	}
	personaB, err := s.personas.Get(owner, req.PersonaB)
	if err != nil {
		return nil, err
	}

	modelName := req.Model
	if modelName == "" {
		modelName = s.defaultModel
	}
	mode := req.Mode
	if mode == "" {
		mode = model.ModeLastMessage
	}

	transcript := &model.Transcript{Starter: req.Starter}
	speakers := [2]*model.Persona{personaA, personaB}
	currentMessage := req.Starter

	for round := 1; round <= req.Rounds; round++ {
		speaker := speakers[(round-1)%2]

		input := currentMessage
		if mode == model.ModeTranscript {
			input = formatTranscript(req.Starter, transcript.Turns)
		}

		result, err := s.llm.Generate(ctx, &llm.GenerationRequest{
			Model:  modelName,
			Prompt: prompt.Compose(*speaker, input),
		})
		if err != nil {
			// The failed round logs nothing and fabricates nothing;
			// completed rounds stay in the transcript.
			metrics.DialogueRoundsTotal.WithLabelValues("failed").Inc()
			roundErr := &RoundError{Round: round, Speaker: speaker.Name, Err: err}
			transcript.FailedRound = round
			transcript.Error = roundErr.Error()
			return transcript, roundErr
		}

		if err := s.interactions.Append(owner, speaker.Name, input, result.Text); err != nil {
			s.logger.Warn("failed to log dialogue round",
				zap.String("owner_id", owner), zap.String("persona", speaker.Name), zap.Error(err))
		}

		transcript.Turns = append(transcript.Turns, model.Turn{
			Round:    round,
			Speaker:  speaker.Name,
			Input:    input,
			Response: result.Text,
		})
		metrics.DialogueRoundsTotal.WithLabelValues("completed").Inc()

		currentMessage = result.Text
	}

	return transcript, nil
}

// formatTranscript renders the conversation so far as speaker-labelled lines.
func formatTranscript(starter string, turns []model.Turn) string {
	var b strings.Builder
	b.WriteString("conversation starter: ")
	b.WriteString(starter)
	for _, turn := range turns {
		b.WriteString("\n")
		b.WriteString(turn.Speaker)
		b.WriteString(": ")
		b.WriteString(turn.Response)
	}
	return b.String()
}
