package model

import (
	"time"
)

// InteractionEntry is one query/response pair in a persona's log stream.
type InteractionEntry struct {
	OwnerID     string    `json:"owner_id"`
	PersonaName string    `json:"persona_name"`
	Timestamp   time.Time `json:"timestamp"`
	Input       string    `json:"input"`
	Response    string    `json:"response"`
}

// AskRequest is the request to query a persona.
type AskRequest struct {
	Input  string `json:"input"`
	Model  string `json:"model,omitempty"`
	Stream bool   `json:"stream,omitempty"`
}

// AskResponse is the response to a persona query.
type AskResponse struct {
	PersonaName string `json:"persona_name"`
	Response    string `json:"response"`
	ContextUsed bool   `json:"context_used"`
	Model       string `json:"model"`
	LatencyMs   int64  `json:"latency_ms"`
}

// ListInteractionsResponse is the response for exporting a persona's log.
type ListInteractionsResponse struct {
	Entries []InteractionEntry `json:"entries"`
	Total   int                `json:"total"`
}
