package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength  = 128
	maxInputLength = 100000 // ~100KB
	maxGoals       = 32
	maxRounds      = 50
)

// ValidatePersonaName validates a persona name.
func ValidatePersonaName(name string) error {
	if len(name) == 0 {
		return errors.New("persona name cannot be empty")
	}
	if len(name) > maxNameLength {
		return errors.New("persona name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("persona name must be valid UTF-8")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return errors.New("persona name must not contain path separators")
	}
	return nil
}

// ValidateDefinition validates the free-text persona attributes.
func ValidateDefinition(tone, domain, responseStyle string, goals []string) error {
	for _, field := range []struct {
		label, value string
	}{
		{"tone", tone},
		{"domain", domain},
		{"response_style", responseStyle},
	} {
		if strings.TrimSpace(field.value) == "" {
			return errors.New(field.label + " cannot be empty")
		}
		if !utf8.ValidString(field.value) {
			return errors.New(field.label + " must be valid UTF-8")
		}
	}
	if len(goals) == 0 {
		return errors.New("at least one goal is required")
	}
	if len(goals) > maxGoals {
		return errors.New("too many goals")
	}
	for _, goal := range goals {
		if strings.TrimSpace(goal) == "" {
			return errors.New("goals cannot be empty")
		}
	}
	return nil
}

// ValidateInput validates a user query or dialogue starter.
func ValidateInput(input string) error {
	if len(input) == 0 {
		return errors.New("input cannot be empty")
	}
	if len(input) > maxInputLength {
		return errors.New("input exceeds maximum length")
	}
	if !utf8.ValidString(input) {
		return errors.New("input must be valid UTF-8")
	}
	return nil
}

// ValidateRounds validates a dialogue round count.
func ValidateRounds(rounds int) error {
	if rounds < 1 {
		return errors.New("rounds must be at least 1")
	}
	if rounds > maxRounds {
		return errors.New("rounds exceeds maximum")
	}
	return nil
}

// ValidateOwnerID validates an owner ID.
func ValidateOwnerID(id string) error {
	if len(id) == 0 {
		return errors.New("owner ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("owner ID exceeds maximum length")
	}
	return nil
}
