package store

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/personalab/persona-platform/internal/model"
	"github.com/personalab/persona-platform/pkg/logger"
)

const backupSuffix = ".bak.json"

// PersonaStore is a file-backed, versioned store for persona definitions.
// Records live under <dataDir>/<owner>/personas; the on-disk layout is an
// implementation detail and not part of the store's contract.
type PersonaStore struct {
	dataDir string
	logger  *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPersonaStore creates a persona store rooted at dataDir.
func NewPersonaStore(dataDir string, log *logger.Logger) *PersonaStore {
	return &PersonaStore{
		dataDir: dataDir,
		logger:  log,
		locks:   make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing mutations for one (owner, name) key.
// Mutations on different keys proceed concurrently.
func (s *PersonaStore) keyLock(owner, name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + name
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *PersonaStore) personaDir(owner string) string {
	return filepath.Join(s.dataDir, url.PathEscape(owner), "personas")
}

func (s *PersonaStore) personaPath(owner, name string) string {
	return filepath.Join(s.personaDir(owner), url.PathEscape(name)+".json")
}

// Create stores a new persona. It fails with ErrAlreadyExists when the
// (owner, name) key is already present.
func (s *PersonaStore) Create(owner string, def model.PersonaDefinition) (*model.Persona, error) {
	lock := s.keyLock(owner, def.Name)
	lock.Lock()
	defer lock.Unlock()

	path := s.personaPath(owner, def.Name)
	if _, err := os.Stat(path); err == nil {
		return nil, ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat persona record: %w", err)
	}

	now := time.Now()
	p := &model.Persona{
		OwnerID:       owner,
		Name:          def.Name,
		Tone:          def.Tone,
		Domain:        def.Domain,
		Goals:         def.Goals,
		ResponseStyle: def.ResponseStyle,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.writeRecord(path, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Get retrieves a persona for the requesting owner. A persona belonging to
// another owner is indistinguishable from a missing one.
func (s *PersonaStore) Get(owner, name string) (*model.Persona, error) {
	data, err := os.ReadFile(s.personaPath(owner, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read persona record: %w", err)
	}

	var p model.Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode persona record: %w", err)
	}

	return &p, nil
}

// Update replaces an existing persona definition. The previous serialized
// record is copied to a timestamped backup before the new value is written,
// so every overwrite stays recoverable. The live file is replaced by rename
// and never unlinked: a concurrent Get always sees either the old record or
// the new one, never a missing persona.
func (s *PersonaStore) Update(owner, name string, def model.UpdatePersonaRequest) (*model.Persona, error) {
	lock := s.keyLock(owner, name)
	lock.Lock()
	defer lock.Unlock()

	path := s.personaPath(owner, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read persona record: %w", err)
	}

	var current model.Persona
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("failed to decode persona record: %w", err)
	}

	backupPath, err := s.nextBackupPath(owner, name)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(backupPath, raw, 0o644); err != nil {
		return nil, fmt.Errorf("failed to back up persona record: %w", err)
	}

	updated := &model.Persona{
		OwnerID:       owner,
		Name:          name,
		Tone:          def.Tone,
		Domain:        def.Domain,
		Goals:         def.Goals,
		ResponseStyle: def.ResponseStyle,
		Version:       current.Version + 1,
		CreatedAt:     current.CreatedAt,
		UpdatedAt:     time.Now(),
	}

	if err := s.writeRecord(path, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// nextBackupPath derives a collision-free backup location from the canonical
// file name and a second-resolution timestamp. Rapid successive updates within
// the same second fall back to a monotonic counter suffix.
func (s *PersonaStore) nextBackupPath(owner, name string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	base := filepath.Join(s.personaDir(owner), url.PathEscape(name)+"."+stamp)

	candidate := base + backupSuffix
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to probe backup path: %w", err)
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, backupSuffix)
	}
}

// List returns all personas owned by the caller, sorted by name.
func (s *PersonaStore) List(owner string) ([]model.Persona, error) {
	entries, err := os.ReadDir(s.personaDir(owner))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}

	var personas []model.Persona
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.personaDir(owner), entry.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable persona record", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var p model.Persona
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("skipping undecodable persona record", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		personas = append(personas, p)
	}

	sort.Slice(personas, func(i, j int) bool { return personas[i].Name < personas[j].Name })
	return personas, nil
}

// ListBackups returns backup snapshot names for one persona, oldest first.
func (s *PersonaStore) ListBackups(owner, name string) ([]model.BackupInfo, error) {
	if _, err := s.Get(owner, name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.personaDir(owner))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	prefix := url.PathEscape(name) + "."
	var backups []model.BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, model.BackupInfo{
			Name:      entry.Name(),
			CreatedAt: info.ModTime(),
		})
	}

	// Each update writes its backup before the next one can run, so mtime
	// order is displacement order. Name order breaks within one second
	// because of the collision suffix; mtime order does not.
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].Name < backups[j].Name
		}
		return backups[i].CreatedAt.Before(backups[j].CreatedAt)
	})
	return backups, nil
}

// ReadBackup loads one backup snapshot by its name from ListBackups.
func (s *PersonaStore) ReadBackup(owner, name, backupName string) (*model.Persona, error) {
	// Backup names come from ListBackups; reject anything path-like.
	if backupName != filepath.Base(backupName) || !strings.HasSuffix(backupName, backupSuffix) {
		return nil, ErrNotFound
	}
	if !strings.HasPrefix(backupName, url.PathEscape(name)+".") {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.personaDir(owner), backupName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var p model.Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	return &p, nil
}

func (s *PersonaStore) writeRecord(path string, p *model.Persona) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create persona directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode persona record: %w", err)
	}

	// Write-then-rename keeps the live record intact if the write fails.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write persona record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace persona record: %w", err)
	}
	return nil
}
