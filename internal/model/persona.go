// Package model defines data structures for the persona platform.
package model

import (
	"time"
)

// Persona represents an owner-scoped AI behavior profile.
type Persona struct {
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Tone          string    `json:"tone"`
	Domain        string    `json:"domain"`
	Goals         []string  `json:"goals"`
	ResponseStyle string    `json:"response_style"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PersonaDefinition carries the caller-supplied persona attributes.
type PersonaDefinition struct {
	Name          string   `json:"name"`
	Tone          string   `json:"tone"`
	Domain        string   `json:"domain"`
	Goals         []string `json:"goals"`
	ResponseStyle string   `json:"response_style"`
}

// CreatePersonaRequest is the request to create a new persona.
type CreatePersonaRequest struct {
	PersonaDefinition
}

// UpdatePersonaRequest is the request to replace a persona definition.
// The previous record is preserved as a backup snapshot.
type UpdatePersonaRequest struct {
	Tone          string   `json:"tone"`
	Domain        string   `json:"domain"`
	Goals         []string `json:"goals"`
	ResponseStyle string   `json:"response_style"`
}

// ListPersonasResponse is the response for listing personas.
type ListPersonasResponse struct {
	Personas []Persona `json:"personas"`
	Total    int       `json:"total"`
}

// BackupInfo describes one preserved persona snapshot.
type BackupInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
