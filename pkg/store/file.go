package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
)

// FileStore persists records as JSON files in a local directory.
// Snapshots live under <base>/snapshots/, graphs under <base>/graphs/.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/azure-diagram-generator/store/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "azure-diagram-generator", "store")
	}
	for _, sub := range []string{"snapshots", "graphs"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "create store dir")
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the base directory for store files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) snapshotPath(name string) string {
	return filepath.Join(s.baseDir, "snapshots", name+".json")
}

func (s *FileStore) graphPath(name string) string {
	return filepath.Join(s.baseDir, "graphs", name+".json")
}

func (s *FileStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	if rec == nil || rec.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot record needs a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return writeJSON(s.snapshotPath(rec.Name), rec)
}

func (s *FileStore) LoadSnapshot(ctx context.Context, name string) (*SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.snapshotPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found: %s", name)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read snapshot file")
	}

	var rec SnapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "parse snapshot file")
	}
	return &rec, nil
}

func (s *FileStore) ListSnapshots(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, "snapshots"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read snapshot dir")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) DeleteSnapshot(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.snapshotPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "remove snapshot file")
	}
	return nil
}

func (s *FileStore) SaveGraph(ctx context.Context, rec *GraphRecord) error {
	if rec == nil || rec.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "graph record needs a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return writeJSON(s.graphPath(rec.Name), rec)
}

func (s *FileStore) LoadGraph(ctx context.Context, name string) (*GraphRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.graphPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "graph not found: %s", name)
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read graph file")
	}

	var rec GraphRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse graph file")
	}
	return &rec, nil
}

func (s *FileStore) Close(ctx context.Context) error { return nil }

var _ Store = (*FileStore)(nil)

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "marshal record")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write record file")
	}
	return nil
}
