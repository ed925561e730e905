// Package llm provides generation backend clients.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// StreamCallback is called for each fragment during streaming.
type StreamCallback func(fragment string, index int) error

// GenerationRequest is the boundary request toward the generation backend.
type GenerationRequest struct {
	Model  string
	Prompt string
}

// GenerationResult is the normalized outcome of one generation call. An
// empty Text is a valid, non-error result.
type GenerationResult struct {
	Text      string
	Fragments int
	Model     string
	LatencyMs int64
}

// Backend failure classes. These stay distinct so callers can tell a slow
// backend from an absent one from a failing one.
var (
	// ErrTimeout means the backend did not complete within the bounded wait.
	ErrTimeout = errors.New("generation backend timed out")

	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("generation backend unavailable")
)

// BackendError is a non-success status reported by the backend.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("generation backend returned status %d: %s", e.StatusCode, e.Body)
}

// Client is the interface for generation backends.
type Client interface {
	// Generate dispatches a prompt and returns the accumulated text.
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)

	// GenerateStream dispatches a prompt, relaying each fragment to the
	// callback as it arrives before returning the accumulated text.
	GenerateStream(ctx context.Context, req *GenerationRequest, callback StreamCallback) (*GenerationResult, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of generation backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)
