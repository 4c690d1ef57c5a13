package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
)

// Embedder is a deterministic in-memory embedder for tests. Vectors are
// derived from a hash of the text, so equal texts always embed equally
// and no network is involved. Individual texts can be pinned to chosen
// vectors with SetVector to control similarity ordering in a test.
type Embedder struct {
	mu      sync.Mutex
	calls   int
	batches [][]string
	pinned  map[string][]float32
	err     error
	dims    int
}

// NewEmbedder creates an embedder producing 8-dimensional unit vectors.
func NewEmbedder() *Embedder {
	return &Embedder{
		pinned: make(map[string][]float32),
		dims:   8,
	}
}

// SetVector pins text to vec, overriding the hash-derived vector.
func (e *Embedder) SetVector(text string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pinned[text] = vec
}

// FailWith makes every subsequent Embed call return err.
// Passing nil restores normal behavior.
func (e *Embedder) FailWith(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Calls returns how many times Embed has been invoked.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Batches returns the text batches passed to Embed, in call order.
func (e *Embedder) Batches() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.batches))
	copy(out, e.batches)
	return out
}

// Embed returns one deterministic vector per input text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	batch := make([]string, len(texts))
	copy(batch, texts)
	e.batches = append(e.batches, batch)

	if e.err != nil {
		return nil, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		if pinned, ok := e.pinned[text]; ok {
			vecs[i] = pinned
			continue
		}
		vecs[i] = DeterministicVector(text, e.dims)
	}
	return vecs, nil
}

// DeterministicVector derives a unit vector of the given dimension from a
// hash of text. Equal texts map to equal vectors.
func DeterministicVector(text string, dims int) []float32 {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		bits := binary.BigEndian.Uint32(sum[(i*4)%28:])
		// Map to (-1, 1).
		v := float64(bits)/float64(math.MaxUint32)*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
