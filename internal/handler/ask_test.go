package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/llm"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/service"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

// fixedBackend returns a canned reply, or fails with err.
type fixedBackend struct {
	text      string
	fragments []string
	err       error
}

func (c *fixedBackend) Generate(ctx context.Context, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.GenerationResult{Text: c.text, Fragments: 1, Model: req.Model}, nil
}

func (c *fixedBackend) GenerateStream(ctx context.Context, req *llm.GenerationRequest, callback llm.StreamCallback) (*llm.GenerationResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	var b strings.Builder
	for i, frag := range c.fragments {
		if err := callback(frag, i); err != nil {
			return nil, err
		}
		b.WriteString(frag)
	}
	return &llm.GenerationResult{Text: b.String(), Fragments: len(c.fragments), Model: req.Model}, nil
}

func (c *fixedBackend) Name() string { return "fixed" }

func newAskRouter(t *testing.T, backend llm.Client) chi.Router {
	t.Helper()
	log := logger.NewNop()
	dir := t.TempDir()
	personas := store.NewPersonaStore(dir, log)
	interactions := store.NewInteractionLog(dir, log)

	_, err := personas.Create("owner-a", model.PersonaDefinition{
		Name: "stargazer", Tone: "friendly", Domain: "astronomy",
		Goals: []string{"explain concepts simply"}, ResponseStyle: "concise",
	})
	require.NoError(t, err)

	svc := service.NewAskService(personas, interactions, index.Disabled{}, backend,
		nil, log, "test-model", 3)
	h := NewAskHandler(svc, log)

	r := chi.NewRouter()
	r.Use(asOwner("owner-a"))
	r.Post("/api/v1/personas/{name}/ask", h.Ask)
	r.Get("/api/v1/personas/{name}/interactions", h.Interactions)
	return r
}

func TestAskReturnsJSONResponse(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{text: "stars burn hydrogen"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
		model.AskRequest{Input: "what do stars burn?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stars burn hydrogen")
}

func TestAskBackendFailureStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", llm.ErrTimeout, http.StatusGatewayTimeout},
		{"unavailable", llm.ErrUnavailable, http.StatusServiceUnavailable},
		{"backend", &llm.BackendError{StatusCode: 500, Body: "boom"}, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newAskRouter(t, &fixedBackend{err: tc.err})
			rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
				model.AskRequest{Input: "hello"})
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAskUnknownPersonaIsNotFound(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{text: "x"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/ghost/ask",
		model.AskRequest{Input: "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskEmptyInputRejected(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{text: "x"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
		model.AskRequest{Input: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskStreamEmitsTokenAndDoneEvents(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{fragments: []string{"Hel", "lo"}})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
		model.AskRequest{Input: "greet me", Stream: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: token")
	assert.Contains(t, body, `"token":"Hel"`)
	assert.Contains(t, body, `"token":"lo"`)
	assert.Contains(t, body, "event: done")
	assert.Contains(t, body, `"response":"Hello"`)
}

func TestAskStreamEmitsErrorEvent(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{err: llm.ErrTimeout})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
		model.AskRequest{Input: "hello", Stream: true})

	body := rec.Body.String()
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, `"code":"timeout"`)
	assert.NotContains(t, body, "event: done")
}

func TestInteractionsEndpointExportsLog(t *testing.T) {
	router := newAskRouter(t, &fixedBackend{text: "logged reply"})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/personas/stargazer/ask",
		model.AskRequest{Input: "log me"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/personas/stargazer/interactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Contains(t, rec.Body.String(), "logged reply")
}
