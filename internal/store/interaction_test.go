package store

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalab/persona-platform/pkg/logger"
)

func TestInteractionLogAppendAndExport(t *testing.T) {
	l := NewInteractionLog(t.TempDir(), logger.NewNop())

	require.NoError(t, l.Append("owner-a", "stargazer", "what is a nebula?", "a cloud of gas"))
	require.NoError(t, l.Append("owner-a", "stargazer", "how far is it?", "very far"))

	entries, err := l.Export("owner-a", "stargazer")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "what is a nebula?", entries[0].Input)
	assert.Equal(t, "a cloud of gas", entries[0].Response)
	assert.Equal(t, "how far is it?", entries[1].Input)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestInteractionLogExportEmpty(t *testing.T) {
	l := NewInteractionLog(t.TempDir(), logger.NewNop())

	entries, err := l.Export("owner-a", "never-written")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInteractionLogStreamsAreScoped(t *testing.T) {
	l := NewInteractionLog(t.TempDir(), logger.NewNop())

	require.NoError(t, l.Append("owner-a", "stargazer", "q", "r"))

	entries, err := l.Export("owner-b", "stargazer")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = l.Export("owner-a", "other")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInteractionLogSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	l := NewInteractionLog(dir, logger.NewNop())

	require.NoError(t, l.Append("owner-a", "stargazer", "first", "one"))

	path := filepath.Join(dir, url.PathEscape("owner-a"), "logs", url.PathEscape("stargazer")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not valid json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, l.Append("owner-a", "stargazer", "second", "two"))

	entries, err := l.Export("owner-a", "stargazer")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Input)
	assert.Equal(t, "second", entries[1].Input)
}
