package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

type dialogueFixture struct {
	service      *DialogueService
	interactions *store.InteractionLog
	backend      *stubBackend
}

func newDialogueFixture(t *testing.T, backend *stubBackend) *dialogueFixture {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewNop()
	personas := store.NewPersonaStore(dir, log)
	interactions := store.NewInteractionLog(dir, log)

	for _, def := range []model.PersonaDefinition{
		{Name: "optimist", Tone: "upbeat", Domain: "philosophy", Goals: []string{"find the silver lining"}, ResponseStyle: "warm"},
		{Name: "skeptic", Tone: "dry", Domain: "philosophy", Goals: []string{"question everything"}, ResponseStyle: "terse"},
	} {
		_, err := personas.Create("owner-a", def)
		require.NoError(t, err)
	}

	return &dialogueFixture{
		service:      NewDialogueService(personas, interactions, backend, log, "test-model"),
		interactions: interactions,
		backend:      backend,
	}
}

// countingBackend replies "reply-N" to the Nth call.
func countingBackend() *stubBackend {
	calls := 0
	b := &stubBackend{}
	b.reply = func(string) string {
		calls++
		return fmt.Sprintf("reply-%d", calls)
	}
	return b
}

func TestDialogueAlternatesSpeakersAndChainsMessages(t *testing.T) {
	fix := newDialogueFixture(t, countingBackend())

	transcript, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist",
		PersonaB: "skeptic",
		Starter:  "is the glass half full?",
		Rounds:   3,
	})
	require.NoError(t, err)

	require.Len(t, transcript.Turns, 3)
	assert.Equal(t, "is the glass half full?", transcript.Starter)
	assert.Zero(t, transcript.FailedRound)

	assert.Equal(t, "optimist", transcript.Turns[0].Speaker)
	assert.Equal(t, "skeptic", transcript.Turns[1].Speaker)
	assert.Equal(t, "optimist", transcript.Turns[2].Speaker)

	// Round 1 speaks to the starter; each later round speaks to the
	// previous round's output.
	assert.Equal(t, "is the glass half full?", transcript.Turns[0].Input)
	assert.Equal(t, transcript.Turns[0].Response, transcript.Turns[1].Input)
	assert.Equal(t, transcript.Turns[1].Response, transcript.Turns[2].Input)
	assert.Equal(t, "reply-3", transcript.Turns[2].Response)
}

func TestDialogueEachRoundPromptsItsSpeaker(t *testing.T) {
	backend := countingBackend()
	fix := newDialogueFixture(t, backend)

	_, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "skeptic", Starter: "hi", Rounds: 2,
	})
	require.NoError(t, err)

	require.Len(t, backend.requests, 2)
	assert.Contains(t, backend.requests[0].Prompt, "You are optimist, an AI specialized in philosophy.")
	assert.Contains(t, backend.requests[1].Prompt, "You are skeptic, an AI specialized in philosophy.")
}

func TestDialogueFailureReturnsPartialTranscript(t *testing.T) {
	backend := countingBackend()
	backend.err = llm.ErrTimeout
	backend.failAfter = 1
	fix := newDialogueFixture(t, backend)

	transcript, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "skeptic", Starter: "hi", Rounds: 4,
	})

	var roundErr *RoundError
	require.ErrorAs(t, err, &roundErr)
	assert.Equal(t, 2, roundErr.Round)
	assert.Equal(t, "skeptic", roundErr.Speaker)
	assert.ErrorIs(t, err, llm.ErrTimeout)

	// The completed round survives in the transcript.
	require.NotNil(t, transcript)
	require.Len(t, transcript.Turns, 1)
	assert.Equal(t, "reply-1", transcript.Turns[0].Response)
	assert.Equal(t, 2, transcript.FailedRound)
	assert.NotEmpty(t, transcript.Error)
}

func TestDialogueUnknownPersonaIsNotFound(t *testing.T) {
	fix := newDialogueFixture(t, countingBackend())

	_, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "ghost", Starter: "hi", Rounds: 1,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = fix.service.Run(context.Background(), "owner-b", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "skeptic", Starter: "hi", Rounds: 1,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDialogueTranscriptModeFeedsFullHistory(t *testing.T) {
	backend := countingBackend()
	fix := newDialogueFixture(t, backend)

	transcript, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "skeptic", Starter: "hi", Rounds: 2,
		Mode: model.ModeTranscript,
	})
	require.NoError(t, err)

	require.Len(t, transcript.Turns, 2)
	assert.Equal(t, "conversation starter: hi", transcript.Turns[0].Input)
	assert.Equal(t, "conversation starter: hi\noptimist: reply-1", transcript.Turns[1].Input)
}

func TestDialogueLogsEachCompletedRound(t *testing.T) {
	fix := newDialogueFixture(t, countingBackend())

	_, err := fix.service.Run(context.Background(), "owner-a", &model.DialogueRequest{
		PersonaA: "optimist", PersonaB: "skeptic", Starter: "hi", Rounds: 3,
	})
	require.NoError(t, err)

	optimistLog, err := fix.interactions.Export("owner-a", "optimist")
	require.NoError(t, err)
	assert.Len(t, optimistLog, 2)

	skepticLog, err := fix.interactions.Export("owner-a", "skeptic")
	require.NoError(t, err)
	assert.Len(t, skepticLog, 1)
	assert.Equal(t, "reply-1", skepticLog[0].Input)
	assert.Equal(t, "reply-2", skepticLog[0].Response)
}

func TestRoundErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := &RoundError{Round: 3, Speaker: "skeptic", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "round 3")
	assert.Contains(t, err.Error(), "skeptic")
}
