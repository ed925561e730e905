package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPIndex talks to an external retrieval sidecar over JSON. The corpus is
// keyed by the same (owner, persona) compound key used by the persona store,
// so tenant scoping holds at the index boundary too.
type HTTPIndex struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIndex creates an index client against the sidecar at baseURL.
func NewHTTPIndex(baseURL string) *HTTPIndex {
	return &HTTPIndex{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ingestRequest struct {
	OwnerID     string `json:"owner_id"`
	Persona     string `json:"persona"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type queryRequest struct {
	OwnerID string `json:"owner_id"`
	Persona string `json:"persona"`
	Query   string `json:"query"`
	TopK    int    `json:"top_k"`
}

type queryResponse struct {
	Passages []string `json:"passages"`
}

// Ingest adds one document to the sidecar-held corpus.
func (x *HTTPIndex) Ingest(ctx context.Context, owner, persona string, data []byte, contentType string) error {
	if !SupportedContentType(contentType) {
		return ErrUnsupportedFormat
	}

	return x.post(ctx, "/v1/ingest", ingestRequest{
		OwnerID:     owner,
		Persona:     persona,
		ContentType: contentType,
		Data:        data,
	}, nil)
}

// Query retrieves up to topK passages. An empty corpus yields nil passages.
func (x *HTTPIndex) Query(ctx context.Context, owner, persona, text string, topK int) ([]string, error) {
	var resp queryResponse
	err := x.post(ctx, "/v1/query", queryRequest{
		OwnerID: owner,
		Persona: persona,
		Query:   text,
		TopK:    topK,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Passages, nil
}

func (x *HTTPIndex) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("index returned status %d: %s", resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode index response: %w", err)
		}
	}
	return nil
}
