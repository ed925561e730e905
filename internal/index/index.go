// Package index defines the document index capability: per-(owner, persona)
// corpus ingestion and top-k similarity retrieval. The embedding and vector
// search implementation lives behind this boundary.
package index

import (
	"context"
	"errors"
)

// ErrUnsupportedFormat is returned when a document's content type cannot
// be ingested.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Supported ingestion content types.
var supportedTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"text/markdown":   true,
}

// SupportedContentType reports whether documents of the given content type
// can be ingested.
func SupportedContentType(contentType string) bool {
	return supportedTypes[contentType]
}

// Index is the similarity retrieval capability consumed by the ask pipeline.
type Index interface {
	// Ingest adds one document to the (owner, persona) corpus.
	Ingest(ctx context.Context, owner, persona string, data []byte, contentType string) error

	// Query returns up to topK relevant passages for the query text.
	// A corpus that does not exist yet yields a nil slice, not an error.
	Query(ctx context.Context, owner, persona, text string, topK int) ([]string, error)
}

// Disabled is an Index for deployments without a retrieval sidecar: every
// query reports no results and ingestion is rejected.
type Disabled struct{}

// Ingest always fails with ErrUnsupportedFormat: with no retrieval sidecar
// there is no format this index can accept, and the caller gets the same
// rejection class as for any other unindexable document.
func (Disabled) Ingest(ctx context.Context, owner, persona string, data []byte, contentType string) error {
	return ErrUnsupportedFormat
}

// Query always reports an empty corpus.
func (Disabled) Query(ctx context.Context, owner, persona, text string, topK int) ([]string, error) {
	return nil, nil
}
