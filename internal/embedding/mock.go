package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// MockEngine is a deterministic, hash-based Engine for tests: it never calls
// out to a real model, so suites using it don't need a running embedding
// server (grounded on the teacher's internal/embed/mock.go MockProvider).
type MockEngine struct {
	mu          sync.Mutex
	dimensions  int
	closeCalled bool
	embedErr    error
}

// NewMockEngine returns a mock producing 384-dimension vectors, the
// teacher's standard sentence-transformer dimension.
func NewMockEngine() *MockEngine {
	return &MockEngine{dimensions: 384}
}

// SetEmbedError makes subsequent Embed calls fail, for testing error paths.
func (m *MockEngine) SetEmbedError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedErr = err
}

func (m *MockEngine) Embed(_ context.Context, texts []string, _ string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := sha256.Sum256([]byte(text))
		vec := make([]float32, m.dimensions)
		for j := 0; j < m.dimensions; j++ {
			offset := (j * 4) % len(hash)
			val := binary.BigEndian.Uint32(hash[offset : offset+4])
			vec[j] = (float32(val)/float32(1<<32))*2.0 - 1.0
		}
		out[i] = vec
	}
	return out, nil
}

func (m *MockEngine) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimensions
}

func (m *MockEngine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockEngine) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}

var _ Engine = (*MockEngine)(nil)
