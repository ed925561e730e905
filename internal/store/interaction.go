package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/pkg/logger"
)

// InteractionLog is an append-only, per-(owner, persona) record of
// query/response pairs, persisted as line-delimited JSON.
type InteractionLog struct {
	dataDir string
	logger  *logger.Logger

	mu      sync.Mutex
	streams map[string]*sync.Mutex
}

// NewInteractionLog creates an interaction log rooted at dataDir.
func NewInteractionLog(dataDir string, log *logger.Logger) *InteractionLog {
	return &InteractionLog{
		dataDir: dataDir,
		logger:  log,
		streams: make(map[string]*sync.Mutex),
	}
}

// streamLock returns the mutex serializing appends within one stream.
// Appends to different streams proceed concurrently.
func (l *InteractionLog) streamLock(owner, persona string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := owner + "/" + persona
	m, ok := l.streams[key]
	if !ok {
		m = &sync.Mutex{}
		l.streams[key] = m
	}
	return m
}

func (l *InteractionLog) streamPath(owner, persona string) string {
	return filepath.Join(l.dataDir, url.PathEscape(owner), "logs", url.PathEscape(persona)+".jsonl")
}

// Append records one exchange with a wall-clock timestamp. Callers treat a
// failure here as non-fatal; it must never fail the primary operation.
func (l *InteractionLog) Append(owner, persona, input, response string) error {
	entry := model.InteractionEntry{
		OwnerID:     owner,
		PersonaName: persona,
		Timestamp:   time.Now(),
		Input:       input,
		Response:    response,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode log entry: %w", err)
	}

	lock := l.streamLock(owner, persona)
	lock.Lock()
	defer lock.Unlock()

	path := l.streamPath(owner, persona)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log stream: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append log entry: %w", err)
	}
	return nil
}

// Export returns all entries for the (owner, persona) stream in append
// order. A stream that was never written yields an empty result.
func (l *InteractionLog) Export(owner, persona string) ([]model.InteractionEntry, error) {
	f, err := os.Open(l.streamPath(owner, persona))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log stream: %w", err)
	}
	defer f.Close()

	var entries []model.InteractionEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.InteractionEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			l.logger.Warn("skipping malformed log entry",
				zap.String("persona", persona), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log stream: %w", err)
	}

	return entries, nil
}
