package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPIndexQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/query", r.URL.Path)

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "owner-a", req.OwnerID)
		assert.Equal(t, "stargazer", req.Persona)
		assert.Equal(t, 3, req.TopK)

		json.NewEncoder(w).Encode(queryResponse{Passages: []string{"passage one", "passage two"}})
	}))
	defer server.Close()

	x := NewHTTPIndex(server.URL)
	passages, err := x.Query(context.Background(), "owner-a", "stargazer", "nebula", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"passage one", "passage two"}, passages)
}

func TestHTTPIndexQueryEmptyCorpus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A sidecar with no corpus for the key answers with no passages.
		json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer server.Close()

	x := NewHTTPIndex(server.URL)
	passages, err := x.Query(context.Background(), "owner-a", "empty", "anything", 3)
	require.NoError(t, err)
	assert.Nil(t, passages)
}

func TestHTTPIndexIngestUnsupportedFormat(t *testing.T) {
	x := NewHTTPIndex("http://localhost:0")
	err := x.Ingest(context.Background(), "owner-a", "stargazer", []byte("data"), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDisabledIndex(t *testing.T) {
	var x Disabled

	passages, err := x.Query(context.Background(), "o", "p", "q", 3)
	require.NoError(t, err)
	assert.Nil(t, passages)

	// Rejection is a client-visible format error, not an internal failure.
	err = x.Ingest(context.Background(), "o", "p", []byte("data"), "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportedContentType(t *testing.T) {
	assert.True(t, SupportedContentType("application/pdf"))
	assert.True(t, SupportedContentType("text/plain"))
	assert.True(t, SupportedContentType("text/markdown"))
	assert.False(t, SupportedContentType("image/png"))
	assert.False(t, SupportedContentType(""))
}
