package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

// EmbeddingScorer measures similarity between two passages by embedding
// both in a single batch call and taking cosine similarity, rescaled from
// [-1,1] to [0,1] via (cosine+1)/2. The rescaled mapping is the only one
// used anywhere in this codebase.
type EmbeddingScorer struct {
	embedder ports.Embedder
	timeout  time.Duration
}

func NewEmbeddingScorer(embedder ports.Embedder, timeout time.Duration) *EmbeddingScorer {
	return &EmbeddingScorer{
		embedder: embedder,
		timeout:  timeout,
	}
}

func (s *EmbeddingScorer) Score(ctx context.Context, textA, textB string) (float64, error) {
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "score similarity", errors.New("both passages must be non-empty"))
	}

	var vectors [][]float32
	err := capabilityCall(ctx, s.timeout, domain.ErrEmbeddingUnavailable, "embed passages", func(callCtx context.Context) error {
		var embedErr error
		vectors, embedErr = s.embedder.Embed(callCtx, []string{textA, textB})
		return embedErr
	})
	if err != nil {
		return 0, err
	}
	if len(vectors) != 2 {
		return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed passages",
			fmt.Errorf("expected 2 vectors, got %d", len(vectors)))
	}

	cosine, err := cosineSimilarity(vectors[0], vectors[1])
	if err != nil {
		return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "compare embeddings", err)
	}
	return clamp01((cosine + 1) / 2), nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("vector dimensionality mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, errors.New("zero-magnitude embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
