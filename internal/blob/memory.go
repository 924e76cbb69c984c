package blob

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Store used by tests and local development.
type Memory struct {
	mu      sync.Mutex
	objects map[string]string // object key -> content type
	fail    map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]string),
		fail:    make(map[string]bool),
	}
}

func (m *Memory) CreateSignedUploadURL(_ context.Context, objectKey, contentType string, maxSize int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail["sign"] {
		return "", fmt.Errorf("upload authorization unavailable")
	}
	return "https://blobs.local/upload/sign/" + objectKey, nil
}

func (m *Memory) Exists(_ context.Context, objectKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail["exists"] {
		return false, fmt.Errorf("probe unavailable")
	}
	_, ok := m.objects[objectKey]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail["delete"] {
		return fmt.Errorf("delete unavailable")
	}
	delete(m.objects, objectKey)
	return nil
}

func (m *Memory) PublicURL(objectKey string) string {
	return "https://blobs.local/public/" + objectKey
}

// Put simulates a client completing its upload.
func (m *Memory) Put(objectKey, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey] = contentType
}

// FailNext makes the named call ("sign", "exists", "delete") return errors
// until cleared.
func (m *Memory) FailNext(call string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[call] = fail
}

// Has reports whether the object key is stored.
func (m *Memory) Has(objectKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectKey]
	return ok
}
