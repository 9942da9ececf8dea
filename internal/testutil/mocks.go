package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockImageStorage is a mock implementation of storage.ImageRepository
type MockImageStorage struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Deleted  []string
	UploadFn func(objectPath string) error
}

// NewMockImageStorage creates a new MockImageStorage
func NewMockImageStorage() *MockImageStorage {
	return &MockImageStorage{
		Objects: make(map[string][]byte),
	}
}

// Upload stores the object in memory
func (m *MockImageStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		if err := m.UploadFn(objectPath); err != nil {
			return "", err
		}
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf
	return objectPath, nil
}

// Delete removes the object
func (m *MockImageStorage) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

// URL returns a fake address for the object
func (m *MockImageStorage) URL(ctx context.Context, objectPath string) (string, error) {
	return fmt.Sprintf("https://images.test/%s", objectPath), nil
}

// Paths returns the stored object paths
func (m *MockImageStorage) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.Objects))
	for p := range m.Objects {
		paths = append(paths, p)
	}
	return paths
}

// MockConnectivity is a switchable online flag for the mutation engine
type MockConnectivity struct {
	mu      sync.Mutex
	online  bool
	waiters []chan struct{}
}

// NewMockConnectivity creates a MockConnectivity in the given state
func NewMockConnectivity(online bool) *MockConnectivity {
	return &MockConnectivity{online: online}
}

// Online reports the current state
func (m *MockConnectivity) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// ReportOffline flips the state to offline
func (m *MockConnectivity) ReportOffline() {
	m.SetOnline(false)
}

// SetOnline changes the state and releases waiters when going online
func (m *MockConnectivity) SetOnline(online bool) {
	m.mu.Lock()
	m.online = online
	var release []chan struct{}
	if online {
		release = m.waiters
		m.waiters = nil
	}
	m.mu.Unlock()
	for _, ch := range release {
		close(ch)
	}
}

// WaitOnline blocks until online or ctx is done
func (m *MockConnectivity) WaitOnline(ctx context.Context) error {
	m.mu.Lock()
	if m.online {
		m.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	m.waiters = append(m.waiters, ch)
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DeletedPaths returns a copy of the deleted object paths
func (m *MockImageStorage) DeletedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Deleted...)
}
