package model

// DialogueMode selects how much conversation context each round's prompt carries.
type DialogueMode string

const (
	// ModeLastMessage passes only the previous round's response.
	ModeLastMessage DialogueMode = "last-message"
	// ModeTranscript passes the full formatted transcript so far.
	ModeTranscript DialogueMode = "transcript"
)

// DialogueRequest is the request to run a two-persona dialogue.
type DialogueRequest struct {
	PersonaA string       `json:"persona_a"`
	PersonaB string       `json:"persona_b"`
	Starter  string       `json:"starter"`
	Rounds   int          `json:"rounds"`
	Model    string       `json:"model,omitempty"`
	Mode     DialogueMode `json:"mode,omitempty"`
}

// Turn is one completed round of a dialogue.
type Turn struct {
	Round    int    `json:"round"`
	Speaker  string `json:"speaker"`
	Input    string `json:"input"`
	Response string `json:"response"`
}

// Transcript is the ordered result of a dialogue.
type Transcript struct {
	Starter string `json:"starter"`
	Turns   []Turn `json:"turns"`
	// FailedRound is set when the dialogue aborted partway; turns up to
	// that round are still present.
	FailedRound int    `json:"failed_round,omitempty"`
	Error       string `json:"error,omitempty"`
}
