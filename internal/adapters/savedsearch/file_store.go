package savedsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/BorisTsankov/HousingHelper/internal/contracts"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// FileStore хранит сохраненные поиски в одном JSON-файле.
// При пустом пути работает только в памяти.
type FileStore struct {
	path string

	mu       sync.RWMutex
	searches map[string]domain.SavedSearch
}

// NewFileStore читает файл, если он есть, и проверяет его по схеме.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, searches: make(map[string]domain.SavedSearch)}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("saved searches: failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}

	if err := contracts.Validate(contracts.SavedSearchesV1, data); err != nil {
		return nil, fmt.Errorf("saved searches: %s: %w", path, err)
	}
	var list []domain.SavedSearch
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("saved searches: failed to decode %s: %w", path, err)
	}
	for _, search := range list {
		s.searches[search.Name] = search
	}
	return s, nil
}

func (s *FileStore) Save(ctx context.Context, search domain.SavedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.searches[search.Name]
	s.searches[search.Name] = search
	if err := s.flushLocked(); err != nil {
		// откатываем память, чтобы она не расходилась с файлом
		if existed {
			s.searches[search.Name] = prev
		} else {
			delete(s.searches, search.Name)
		}
		return err
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*domain.SavedSearch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search, ok := s.searches[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSavedSearchNotFound, name)
	}
	return &search, nil
}

// List возвращает поиски, упорядоченные по имени.
func (s *FileStore) List(ctx context.Context) ([]domain.SavedSearch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.searches[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSavedSearchNotFound, name)
	}
	delete(s.searches, name)
	if err := s.flushLocked(); err != nil {
		s.searches[name] = prev
		return err
	}
	return nil
}

func (s *FileStore) sortedLocked() []domain.SavedSearch {
	out := make([]domain.SavedSearch, 0, len(s.searches))
	for _, search := range s.searches {
		out = append(out, search)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// flushLocked пишет файл целиком через временный файл и rename.
func (s *FileStore) flushLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("saved searches: failed to encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saved searches: failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".saved-searches-*.json")
	if err != nil {
		return fmt.Errorf("saved searches: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saved searches: failed to write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saved searches: failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("saved searches: failed to replace %s: %w", s.path, err)
	}
	return nil
}
