// Package embed defines the Embedder contract used as an external
// collaborator: a black-box encoder returning L2-normalized
// vectors of fixed dimension D. It ships a deterministic local adapter
// so the ingestion and search pipeline is exercisable without a live
// model server; a production deployment swaps it for an HTTP-backed
// adapter (e.g. Ollama) behind the same interface.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/maxzrff/KnowledgeMCP/internal/domain"
)

// Embedder turns text into a fixed-dimension, L2-normalized vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// LocalEmbedder is a deterministic, dependency-free Embedder: it hashes
// shingles of the input into a fixed-size vector and L2-normalizes the
// result. It is not semantically meaningful, but it is stable (same
// text -> same vector, satisfying round-trip and idempotence
// requirements) and safe for offline tests.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder builds a LocalEmbedder of the given dimension.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	return &LocalEmbedder{dim: dim}
}

func (e *LocalEmbedder) Dimension() int { return e.dim }

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vec := make([]float32, e.dim)
	words := shingle(text)
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dim))
		sign := float32(1)
		if (sum>>1)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func shingle(text string) []string {
	var words []string
	var cur []byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			if len(cur) > 0 {
				words = append(words, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, c)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range vec {
		vec[i] /= norm
	}
}
