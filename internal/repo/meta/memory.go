package meta

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yourname/upload_lite/internal/models"
)

// MemoryStore хранит реестр только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]models.File
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]models.File{}}
}

// Get возвращает запись по имени или models.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, name string) (models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	if !ok {
		return models.File{}, models.ErrNotFound
	}
	return f, nil
}

// Save записывает (или обновляет) запись целиком.
func (s *MemoryStore) Save(_ context.Context, file models.File) error {
	if strings.TrimSpace(file.Name) == "" {
		return fmt.Errorf("file name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file.Name] = file
	return nil
}

func (s *MemoryStore) Close() {}
