package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MockPhotoStore is an in-memory PhotoStore for testing
type MockPhotoStore struct {
	photos map[string][]byte
	mu     sync.RWMutex
}

// NewMockPhotoStore creates an empty mock store.
func NewMockPhotoStore() *MockPhotoStore {
	return &MockPhotoStore{photos: make(map[string][]byte)}
}

// SetAsMockForTesting installs this mock as the global photo store
func (m *MockPhotoStore) SetAsMockForTesting() {
	SetPhotoStore(m)
}

// Save reads the upload into memory.
func (m *MockPhotoStore) Save(_ context.Context, key string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.photos[key] = content
	m.mu.Unlock()
	return nil
}

// URL returns a fake bucket URL for a stored key.
func (m *MockPhotoStore) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if !m.Exists(key) {
		return "", fmt.Errorf("photo not found in mock store: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete drops key from memory.
func (m *MockPhotoStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.photos, key)
	m.mu.Unlock()
	return nil
}

// Exists reports whether key is stored
func (m *MockPhotoStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.photos[key]
	return ok
}

// Keys returns the stored keys (for testing assertions)
func (m *MockPhotoStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.photos))
	for k := range m.photos {
		keys = append(keys, k)
	}
	return keys
}
