// Package embedding provides vector embedding generation for the knowledge
// index. Defines a Provider interface plus Gemini, OpenAI, noop, and mock
// implementations so the provider can be swapped without changing consumers.
package embedding

import (
	"context"
	"crypto/sha256"
	"math"
)

// Provider generates vector embeddings from text.
type Provider interface {
	// Embed generates a single embedding vector from text. An error means
	// the upstream provider failed; callers that prefer degraded retrieval
	// over failure translate it to an empty vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int
}

// NoopProvider returns zero vectors. Used when no API key is configured.
type NoopProvider struct {
	dims int
}

// NewNoopProvider creates a provider that returns zero vectors.
func NewNoopProvider(dims int) *NoopProvider {
	return &NoopProvider{dims: dims}
}

// Dimensions returns the embedding vector size.
func (p *NoopProvider) Dimensions() int {
	return p.dims
}

// Embed returns a zero vector.
func (p *NoopProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, p.dims), nil
}

// MockProvider generates deterministic unit-length embeddings from a text
// hash. Tests use it so retrieval ordering is reproducible without network.
type MockProvider struct {
	dims int
}

// NewMockProvider creates a deterministic hash-based provider.
func NewMockProvider(dims int) *MockProvider {
	return &MockProvider{dims: dims}
}

// Dimensions returns the embedding vector size.
func (p *MockProvider) Dimensions() int {
	return p.dims
}

// Embed derives a normalized vector from the SHA-256 digest of the text.
// Identical text always yields an identical vector.
func (p *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, p.dims)
	for i := range vec {
		b := hash[i%len(hash)]
		vec[i] = (float32(b) / 127.5) - 1.0
	}
	return normalize(vec), nil
}

// normalize scales a vector to unit length.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	mag := float32(math.Sqrt(sum))
	if mag == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / mag
	}
	return out
}
