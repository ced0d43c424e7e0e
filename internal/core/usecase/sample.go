package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

type SampleConfig struct {
	// Temperature applied to sampled generations. Kept above zero so the
	// resample can actually diverge from the original answer.
	Temperature float64
	DefaultTopK int

	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration
	EmbedTimeout    time.Duration
}

func (c SampleConfig) normalize() SampleConfig {
	out := c
	if out.Temperature <= 0 {
		out.Temperature = 0.7
	}
	if out.DefaultTopK <= 0 {
		out.DefaultTopK = 3
	}
	return out
}

// SampleUseCase regenerates an answer for a query from an independently
// re-retrieved context set. The original answer is never an input here, so
// the sample reflects the generator's variance rather than a paraphrase.
type SampleUseCase struct {
	collections ports.CollectionRepository
	embedder    ports.Embedder
	vectorDB    ports.VectorStore
	generator   ports.AnswerGenerator
	cfg         SampleConfig
}

func NewSampleUseCase(
	collections ports.CollectionRepository,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	cfg SampleConfig,
) *SampleUseCase {
	return &SampleUseCase{
		collections: collections,
		embedder:    embedder,
		vectorDB:    vectorDB,
		generator:   generator,
		cfg:         cfg.normalize(),
	}
}

func (uc *SampleUseCase) GenerateSample(ctx context.Context, query string, scope domain.ContextScope) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "generate sample", errors.New("query is empty"))
	}
	if strings.TrimSpace(scope.Collection) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "generate sample", errors.New("collection is empty"))
	}
	limit := scope.TopK
	if limit <= 0 {
		limit = uc.cfg.DefaultTopK
	}

	col, err := uc.collections.GetByName(ctx, scope.Collection)
	if err != nil {
		return "", fmt.Errorf("resolve collection: %w", err)
	}

	var queryVector []float32
	err = capabilityCall(ctx, uc.cfg.EmbedTimeout, domain.ErrEmbeddingUnavailable, "embed query", func(callCtx context.Context) error {
		var embedErr error
		queryVector, embedErr = uc.embedder.EmbedQuery(callCtx, query)
		return embedErr
	})
	if err != nil {
		return "", err
	}

	var snippets []domain.Snippet
	err = capabilityCall(ctx, uc.cfg.RetrieveTimeout, domain.ErrTemporary, "retrieve context", func(callCtx context.Context) error {
		var searchErr error
		snippets, searchErr = uc.vectorDB.Search(callCtx, col.Name, queryVector, limit, domain.SearchFilter{})
		return searchErr
	})
	if err != nil {
		return "", err
	}
	if len(snippets) == 0 {
		return "", domain.WrapError(domain.ErrEmptyContext, "retrieve context",
			fmt.Errorf("collection %q returned no snippets for query", col.Name))
	}

	var sampled string
	err = capabilityCall(ctx, uc.cfg.GenerateTimeout, domain.ErrGenerationUnavailable, "generate sample answer", func(callCtx context.Context) error {
		var genErr error
		sampled, genErr = uc.generator.GenerateAnswer(callCtx, query, snippets, domain.GenerateOptions{
			Temperature: uc.cfg.Temperature,
		})
		return genErr
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sampled) == "" {
		return "", domain.WrapError(domain.ErrGenerationUnavailable, "generate sample answer", errors.New("empty completion"))
	}
	return sampled, nil
}
