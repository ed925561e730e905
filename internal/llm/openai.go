package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient speaks the OpenAI-compatible chat completion protocol, which
// many locally hosted servers (vLLM, llama.cpp, LM Studio) expose.
type OpenAIClient struct {
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIClient creates a client. baseURL may point at any compatible
// server; apiKey may be a placeholder for servers that ignore it.
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("OpenAI API key or base URL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		timeout: timeout,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Generate dispatches a prompt and returns the response text.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &GenerationResult{
		Text:      content,
		Model:     req.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// GenerateStream dispatches a prompt and relays each delta to the callback.
func (c *OpenAIClient) GenerateStream(ctx context.Context, req *GenerationRequest, callback StreamCallback) (*GenerationResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer stream.Close()

	var content string
	fragments := 0

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, c.classify(ctx, err)
		}

		if len(resp.Choices) > 0 {
			delta := resp.Choices[0].Delta.Content
			if delta != "" {
				content += delta
				if callback != nil {
					if err := callback(delta, fragments); err != nil {
						return nil, err
					}
				}
				fragments++
			}
		}
	}

	return &GenerationResult{
		Text:      content,
		Fragments: fragments,
		Model:     req.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// classify maps provider errors onto the shared backend taxonomy.
func (c *OpenAIClient) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= http.StatusBadRequest {
			return &BackendError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
		}
	}

	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
