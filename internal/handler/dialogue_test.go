package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

// flakyBackend succeeds for the first n calls, then fails with err.
type flakyBackend struct {
	n     int
	err   error
	calls int
}

func (c *flakyBackend) Generate(ctx context.Context, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	c.calls++
	if c.calls > c.n {
		return nil, c.err
	}
	return &llm.GenerationResult{Text: fmt.Sprintf("reply-%d", c.calls), Fragments: 1, Model: req.Model}, nil
}

func (c *flakyBackend) GenerateStream(ctx context.Context, req *llm.GenerationRequest, callback llm.StreamCallback) (*llm.GenerationResult, error) {
	return c.Generate(ctx, req)
}

func (c *flakyBackend) Name() string { return "flaky" }

func newDialogueRouter(t *testing.T, backend llm.Client) chi.Router {
	t.Helper()
	log := logger.NewNop()
	dir := t.TempDir()
	personas := store.NewPersonaStore(dir, log)
	interactions := store.NewInteractionLog(dir, log)

	for _, name := range []string{"optimist", "skeptic"} {
		_, err := personas.Create("owner-a", model.PersonaDefinition{
			Name: name, Tone: "neutral", Domain: "philosophy",
			Goals: []string{"argue well"}, ResponseStyle: "terse",
		})
		require.NoError(t, err)
	}

	svc := service.NewDialogueService(personas, interactions, backend, log, "test-model")
	h := NewDialogueHandler(svc, log)

	r := chi.NewRouter()
	r.Use(asOwner("owner-a"))
	r.Post("/api/v1/dialogues", h.Run)
	return r
}

func validDialogueBody(rounds int) model.DialogueRequest {
	return model.DialogueRequest{
		PersonaA: "optimist",
		PersonaB: "skeptic",
		Starter:  "is the glass half full?",
		Rounds:   rounds,
	}
}

func TestDialogueReturnsFullTranscript(t *testing.T) {
	router := newDialogueRouter(t, &flakyBackend{n: 100})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/dialogues", validDialogueBody(3))
	require.Equal(t, http.StatusOK, rec.Code)

	var transcript model.Transcript
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transcript))
	require.Len(t, transcript.Turns, 3)
	assert.Equal(t, "optimist", transcript.Turns[0].Speaker)
	assert.Equal(t, "skeptic", transcript.Turns[1].Speaker)
	assert.Equal(t, "optimist", transcript.Turns[2].Speaker)
}

func TestDialogueFailureCarriesPartialTranscript(t *testing.T) {
	router := newDialogueRouter(t, &flakyBackend{n: 1, err: llm.ErrTimeout})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/dialogues", validDialogueBody(3))
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp struct {
		Error      string           `json:"error"`
		Transcript model.Transcript `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "round 2")
	require.Len(t, resp.Transcript.Turns, 1)
	assert.Equal(t, "reply-1", resp.Transcript.Turns[0].Response)
	assert.Equal(t, 2, resp.Transcript.FailedRound)
}

func TestDialogueValidation(t *testing.T) {
	router := newDialogueRouter(t, &flakyBackend{n: 100})

	body := validDialogueBody(0)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/dialogues", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = validDialogueBody(1)
	body.Starter = ""
	rec = doJSON(t, router, http.MethodPost, "/api/v1/dialogues", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = validDialogueBody(1)
	body.Mode = "improvise"
	rec = doJSON(t, router, http.MethodPost, "/api/v1/dialogues", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDialogueUnknownPersonaIsNotFound(t *testing.T) {
	router := newDialogueRouter(t, &flakyBackend{n: 100})

	body := validDialogueBody(1)
	body.PersonaB = "ghost"
	rec := doJSON(t, router, http.MethodPost, "/api/v1/dialogues", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
