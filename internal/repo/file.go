package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkordes/claimtrack/internal/domain"
)

const (
	claimsFile = "claims.json"
	tagsFile   = "tags.json"
)

// FileStore keeps claims and tags as two JSON array files in one directory.
type FileStore struct {
	dir string
	log *slog.Logger
	mu  sync.RWMutex
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string, log *slog.Logger) *FileStore {
	return &FileStore{dir: dir, log: loggerOrDefault(log)}
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) ReadAllClaims(_ context.Context) ([]domain.Claim, error) {
	data, err := s.read(claimsFile)
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.ReadAllClaims: %w", err)
	}
	claims, err := decodeEach[domain.Claim](s.log, s.path(claimsFile), data)
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.ReadAllClaims: %w", err)
	}
	return validClaims(s.log, s.path(claimsFile), claims), nil
}

func (s *FileStore) SaveAllClaims(_ context.Context, claims []domain.Claim) error {
	if err := s.write(claimsFile, nonNilSlice(claims)); err != nil {
		return fmt.Errorf("repo.FileStore.SaveAllClaims: %w", err)
	}
	return nil
}

func (s *FileStore) ReadAllTags(_ context.Context) ([]domain.Tag, error) {
	data, err := s.read(tagsFile)
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.ReadAllTags: %w", err)
	}
	tags, err := decodeEach[domain.Tag](s.log, s.path(tagsFile), data)
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.ReadAllTags: %w", err)
	}
	return validTags(s.log, s.path(tagsFile), tags), nil
}

func (s *FileStore) SaveAllTags(_ context.Context, tags []domain.Tag) error {
	if err := s.write(tagsFile, nonNilSlice(tags)); err != nil {
		return fmt.Errorf("repo.FileStore.SaveAllTags: %w", err)
	}
	return nil
}

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }

// read returns the named file's contents. A missing file reads as empty.
func (s *FileStore) read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// write encodes v to a temp file and renames it over the named file, so a
// crash mid-write never leaves a truncated array behind.
func (s *FileStore) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
