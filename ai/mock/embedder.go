package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/poiesic/corpus/ai"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, texts []string, model string) ([][]float32, error)

	// MaxPayloadChars, when positive, makes Embed reject any call whose
	// total text length exceeds it with ai.ErrOversize. This simulates the
	// undocumented payload limit of real embedding services.
	MaxPayloadChars int

	mu        sync.Mutex
	callCount int
	calls     [][]string
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Embed generates deterministic embeddings for the texts, or rejects the
// call as oversize when the payload budget is exceeded.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	m.mu.Lock()
	m.callCount++
	m.calls = append(m.calls, texts)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts, model)
	}

	if m.MaxPayloadChars > 0 {
		total := 0
		for _, t := range texts {
			total += len(t)
		}
		if total > m.MaxPayloadChars {
			return nil, fmt.Errorf("%w: %d chars", ai.ErrOversize, total)
		}
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = DeterministicVector(text, 384)
	}
	return embeddings, nil
}

// CallCount returns the number of times Embed was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Calls returns the text batches Embed was invoked with, in call order.
func (m *MockEmbedder) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Reset clears recorded calls and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = nil
	m.EmbedFunc = nil
}

// DeterministicVector creates a deterministic embedding vector from text.
// It uses an FNV hash so the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
