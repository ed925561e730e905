package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaClient talks to an Ollama-compatible backend: a POST to /api/generate
// answered with newline-delimited JSON fragments, the last one flagged done.
type OllamaClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewOllamaClient creates a client for the backend at baseURL. timeout bounds
// each generation call end to end.
func NewOllamaClient(baseURL string, timeout time.Duration) (*OllamaClient, error) {
	if baseURL == "" {
		return nil, errors.New("ollama base URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OllamaClient{
		baseURL: baseURL,
		timeout: timeout,
		// The per-call context carries the deadline; a client-level timeout
		// would double-bound long streams.
		client: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (c *OllamaClient) Name() string {
	return "ollama"
}

type generatePayload struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateFragment struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate dispatches a prompt and returns the accumulated text.
func (c *OllamaClient) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	return c.GenerateStream(ctx, req, nil)
}

// GenerateStream dispatches a prompt, accumulating streamed fragments in
// arrival order until one is flagged done or the stream ends. Malformed
// fragments are skipped, never fatal.
func (c *OllamaClient) GenerateStream(ctx context.Context, req *GenerationRequest, callback StreamCallback) (*GenerationResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(generatePayload{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &BackendError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var content string
	fragments := 0

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var frag generateFragment
		if err := json.Unmarshal(line, &frag); err != nil {
			// One bad fragment never aborts the exchange.
			continue
		}

		if frag.Response != "" {
			content += frag.Response
			if callback != nil {
				if err := callback(frag.Response, fragments); err != nil {
					return nil, err
				}
			}
			fragments++
		}

		if frag.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, c.classify(ctx, err)
	}

	return &GenerationResult{
		Text:      content,
		Fragments: fragments,
		Model:     req.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// classify maps a transport-layer failure onto the backend error taxonomy.
// Caller-initiated cancellation passes through untouched.
func (c *OllamaClient) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
