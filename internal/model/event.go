package model

import (
	"time"
)

// TokenEvent represents a streamed generation fragment event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// ErrorEvent represents an error event on a stream.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents a keep-alive event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// InteractionEvent is the side-channel record published after a logged exchange.
type InteractionEvent struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	PersonaName string    `json:"persona_name"`
	Model       string    `json:"model"`
	InputLen    int       `json:"input_len"`
	ResponseLen int       `json:"response_len"`
	CreatedAt   time.Time `json:"created_at"`
}
