package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalab/persona-platform/internal/index"
	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/internal/store"
	"github.com/personalab/persona-platform/pkg/logger"
)

type documentFixture struct {
	service   *DocumentService
	documents *store.DocumentStore
	index     *fakeIndex
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewNop()
	personas := store.NewPersonaStore(dir, log)
	documents := store.NewDocumentStore(dir)
	idx := &fakeIndex{}

	_, err := personas.Create("owner-a", model.PersonaDefinition{
		Name: "stargazer", Tone: "friendly", Domain: "astronomy",
		Goals: []string{"explain concepts simply"}, ResponseStyle: "concise",
	})
	require.NoError(t, err)

	return &documentFixture{
		service:   NewDocumentService(personas, documents, idx, log),
		documents: documents,
		index:     idx,
	}
}

func TestDocumentUploadSavesAndIngests(t *testing.T) {
	fix := newDocumentFixture(t)

	err := fix.service.Upload(context.Background(), "owner-a", "stargazer",
		"notes.txt", []byte("orion rises in winter"), "text/plain")
	require.NoError(t, err)

	assert.Equal(t, 1, fix.index.ingested)

	saved, err := fix.documents.Read("owner-a", "stargazer", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "orion rises in winter", string(saved))
}

func TestDocumentUploadUnsupportedFormat(t *testing.T) {
	fix := newDocumentFixture(t)

	err := fix.service.Upload(context.Background(), "owner-a", "stargazer",
		"clip.mp4", []byte{0x00}, "video/mp4")
	assert.ErrorIs(t, err, index.ErrUnsupportedFormat)
	assert.Zero(t, fix.index.ingested)

	docs, err := fix.documents.List("owner-a", "stargazer")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentUploadIngestFailureRemovesSavedFile(t *testing.T) {
	fix := newDocumentFixture(t)
	fix.index.err = errors.New("sidecar down")

	err := fix.service.Upload(context.Background(), "owner-a", "stargazer",
		"notes.txt", []byte("orion rises in winter"), "text/plain")
	require.Error(t, err)

	// The retained copy mirrors the indexed corpus; an unindexed document
	// must not linger for export.
	docs, err := fix.documents.List("owner-a", "stargazer")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentUploadUnknownPersona(t *testing.T) {
	fix := newDocumentFixture(t)

	err := fix.service.Upload(context.Background(), "owner-a", "ghost",
		"notes.txt", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = fix.service.Upload(context.Background(), "owner-b", "stargazer",
		"notes.txt", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
