// Package prompt builds generation prompts from persona definitions. Every
// function here is a pure string transform: no network, no storage, no clock.
package prompt

import (
	"fmt"
	"strings"

	"github.com/personalab/persona-platform/internal/model"
)

const (
	contextBegin = "---CONTEXT BEGIN---"
	contextEnd   = "---CONTEXT END---"
)

// Compose renders a persona's instruction preamble, its goals one per line,
// and the user's question into the final prompt text. Identical inputs
// always yield byte-identical output.
func Compose(p model.Persona, userInput string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an AI specialized in %s.\n", p.Name, p.Domain)
	fmt.Fprintf(&b, "Your tone should be %s and your responses must be in a %s style.\n", p.Tone, p.ResponseStyle)
	b.WriteString("Your main goals are:\n")
	for _, goal := range p.Goals {
		b.WriteString("- ")
		b.WriteString(goal)
		b.WriteString("\n")
	}
	b.WriteString("\nUser query: ")
	b.WriteString(userInput)
	b.WriteString("\n")

	return b.String()
}

// WrapWithContext embeds retrieved passages in a clearly delimited block
// ahead of the question. Empty passages return the input unchanged, so a
// no-results retrieval never alters the prompt.
func WrapWithContext(userInput string, passages []string) string {
	joined := joinPassages(passages)
	if joined == "" {
		return userInput
	}

	var b strings.Builder
	b.WriteString("Based on the following context from your documents:\n")
	b.WriteString(contextBegin)
	b.WriteString("\n")
	b.WriteString(joined)
	b.WriteString("\n")
	b.WriteString(contextEnd)
	b.WriteString("\n\nPlease answer this question: ")
	b.WriteString(userInput)

	return b.String()
}

func joinPassages(passages []string) string {
	var kept []string
	for _, p := range passages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
