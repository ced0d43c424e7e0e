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

const (
	RetrievalModeSemantic = "semantic"
	RetrievalModeHybrid   = "hybrid"
)

type QueryConfig struct {
	RetrievalMode    string
	DefaultTopK      int
	HybridCandidates int
	FusionRRFK       int
	RerankTopN       int

	// AnswerTemperature stays at zero by default so primary answers are as
	// reproducible as the model allows; only self-check samples run hot.
	AnswerTemperature float64

	EmbedTimeout    time.Duration
	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration
}

func (c QueryConfig) normalize() QueryConfig {
	out := c
	if out.RetrievalMode != RetrievalModeHybrid {
		out.RetrievalMode = RetrievalModeSemantic
	}
	if out.DefaultTopK <= 0 {
		out.DefaultTopK = 3
	}
	if out.HybridCandidates <= 0 {
		out.HybridCandidates = 30
	}
	if out.FusionRRFK <= 0 {
		out.FusionRRFK = 60
	}
	if out.RerankTopN <= 0 {
		out.RerankTopN = 20
	}
	return out
}

// QueryUseCase answers a question from one indexed collection: retrieve,
// optionally fuse semantic and lexical candidates, then generate.
type QueryUseCase struct {
	collections ports.CollectionRepository
	embedder    ports.Embedder
	vectorDB    ports.VectorStore
	generator   ports.AnswerGenerator
	cfg         QueryConfig
}

func NewQueryUseCase(
	collections ports.CollectionRepository,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	cfg QueryConfig,
) *QueryUseCase {
	return &QueryUseCase{
		collections: collections,
		embedder:    embedder,
		vectorDB:    vectorDB,
		generator:   generator,
		cfg:         cfg.normalize(),
	}
}

func (uc *QueryUseCase) Answer(ctx context.Context, question string, scope domain.ContextScope, filter domain.SearchFilter) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("question is empty"))
	}
	if strings.TrimSpace(scope.Collection) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer query", errors.New("collection is empty"))
	}
	limit := scope.TopK
	if limit <= 0 {
		limit = uc.cfg.DefaultTopK
	}

	col, err := uc.collections.GetByName(ctx, scope.Collection)
	if err != nil {
		return nil, fmt.Errorf("resolve collection: %w", err)
	}

	snippets, err := uc.retrieve(ctx, col.Name, question, limit, filter)
	if err != nil {
		return nil, err
	}

	var answerText string
	err = capabilityCall(ctx, uc.cfg.GenerateTimeout, domain.ErrGenerationUnavailable, "generate answer", func(callCtx context.Context) error {
		var genErr error
		answerText, genErr = uc.generator.GenerateAnswer(callCtx, question, snippets, domain.GenerateOptions{
			Temperature: uc.cfg.AnswerTemperature,
		})
		return genErr
	})
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:    answerText,
		Sources: snippets,
	}, nil
}

func (uc *QueryUseCase) retrieve(ctx context.Context, collection, question string, limit int, filter domain.SearchFilter) ([]domain.Snippet, error) {
	var queryVector []float32
	err := capabilityCall(ctx, uc.cfg.EmbedTimeout, domain.ErrEmbeddingUnavailable, "embed query", func(callCtx context.Context) error {
		var embedErr error
		queryVector, embedErr = uc.embedder.EmbedQuery(callCtx, question)
		return embedErr
	})
	if err != nil {
		return nil, err
	}

	if uc.cfg.RetrievalMode != RetrievalModeHybrid {
		var snippets []domain.Snippet
		err = capabilityCall(ctx, uc.cfg.RetrieveTimeout, domain.ErrTemporary, "semantic search", func(callCtx context.Context) error {
			var searchErr error
			snippets, searchErr = uc.vectorDB.Search(callCtx, collection, queryVector, limit, filter)
			return searchErr
		})
		return snippets, err
	}

	candidates := uc.cfg.HybridCandidates
	var semantic, lexical []domain.Snippet
	err = capabilityCall(ctx, uc.cfg.RetrieveTimeout, domain.ErrTemporary, "hybrid search", func(callCtx context.Context) error {
		var searchErr error
		semantic, searchErr = uc.vectorDB.Search(callCtx, collection, queryVector, candidates, filter)
		if searchErr != nil {
			return searchErr
		}
		lexical, searchErr = uc.vectorDB.SearchLexical(callCtx, collection, question, candidates, filter)
		return searchErr
	})
	if err != nil {
		return nil, err
	}

	fused := fuseCandidatesRRF(semantic, lexical, uc.cfg.FusionRRFK)
	reranked := rerankHybridCandidates(question, fused, uc.cfg.RerankTopN)
	return trimCandidates(reranked, limit), nil
}
