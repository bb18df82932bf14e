package inmem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// FileStorage keeps file bytes in memory.
type FileStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func NewFileStorage() *FileStorage {
	return &FileStorage{
		files: make(map[string][]byte),
	}
}

func (s *FileStorage) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = content
	return nil
}

func (s *FileStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("no file stored under %s", key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, key)
	return nil
}

func (s *FileStorage) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.files[key]
	return ok, nil
}

// Len reports how many files are stored, for leak checks in tests.
func (s *FileStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
