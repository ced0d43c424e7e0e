package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

type ProcessConfig struct {
	EmbedModel string
	EmbedBatch int

	EmbedTimeout time.Duration
	IndexTimeout time.Duration
}

func (c ProcessConfig) normalize() ProcessConfig {
	out := c
	if out.EmbedBatch <= 0 {
		out.EmbedBatch = 32
	}
	return out
}

// ProcessSourceUseCase runs the worker-side indexing pipeline: extract the
// stored archive, chunk each file per the source's strategy, embed the
// chunks and upsert them into a freshly derived collection.
type ProcessSourceUseCase struct {
	repo        ports.SourceRepository
	collections ports.CollectionRepository
	extractor   ports.ArchiveExtractor
	chunkers    map[domain.Strategy]ports.Chunker
	embedder    ports.Embedder
	vectorDB    ports.VectorStore
	cfg         ProcessConfig
	logger      *slog.Logger
}

func NewProcessSourceUseCase(
	repo ports.SourceRepository,
	collections ports.CollectionRepository,
	extractor ports.ArchiveExtractor,
	chunkers []ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	cfg ProcessConfig,
	logger *slog.Logger,
) *ProcessSourceUseCase {
	byStrategy := make(map[domain.Strategy]ports.Chunker, len(chunkers))
	for _, c := range chunkers {
		byStrategy[c.Name()] = c
	}
	return &ProcessSourceUseCase{
		repo:        repo,
		collections: collections,
		extractor:   extractor,
		chunkers:    byStrategy,
		embedder:    embedder,
		vectorDB:    vectorDB,
		cfg:         cfg.normalize(),
		logger:      logger,
	}
}

func (uc *ProcessSourceUseCase) ProcessByID(ctx context.Context, sourceID string) error {
	src, err := uc.repo.GetByID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source %s: %w", sourceID, err)
	}

	if err := uc.repo.UpdateStatus(ctx, src.ID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("mark source processing: %w", err)
	}

	if err := uc.index(ctx, src); err != nil {
		if markErr := uc.repo.UpdateStatus(ctx, src.ID, domain.StatusFailed, err.Error()); markErr != nil {
			uc.logger.Error("mark source failed",
				slog.String("source_id", src.ID),
				slog.String("error", markErr.Error()),
			)
		}
		return err
	}

	return nil
}

func (uc *ProcessSourceUseCase) index(ctx context.Context, src *domain.Source) error {
	files, err := uc.extractor.Extract(ctx, src)
	if err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}
	if len(files) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "index source", errors.New("archive contains no text files"))
	}

	chunker, ok := uc.chunkers[src.Strategy]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "index source", fmt.Errorf("no chunker for strategy %q", src.Strategy))
	}

	chunks := make([]domain.IndexedChunk, 0, len(files)*4)
	for _, file := range files {
		pieces := chunker.Split(file)
		language := domain.LanguageForPath(file.Path)
		for i, text := range pieces {
			chunks = append(chunks, domain.IndexedChunk{
				SourceID:   src.ID,
				Path:       file.Path,
				Language:   language,
				ChunkIndex: i,
				Text:       text,
			})
		}
	}
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "index source", errors.New("chunking produced no chunks"))
	}

	vectorSize, err := uc.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	collection := domain.CollectionName(src.Name, src.Strategy, uc.cfg.EmbedModel)
	err = capabilityCall(ctx, uc.cfg.IndexTimeout, domain.ErrTemporary, "index chunks", func(callCtx context.Context) error {
		if ensureErr := uc.vectorDB.EnsureCollection(callCtx, collection, vectorSize); ensureErr != nil {
			return ensureErr
		}
		return uc.vectorDB.IndexChunks(callCtx, collection, chunks)
	})
	if err != nil {
		return err
	}

	if err := uc.collections.Register(ctx, &domain.Collection{
		Name:       collection,
		SourceID:   src.ID,
		Strategy:   src.Strategy,
		EmbedModel: uc.cfg.EmbedModel,
		VectorSize: vectorSize,
		ChunkCount: len(chunks),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("register collection: %w", err)
	}

	if err := uc.repo.SaveIndexResult(ctx, src.ID, collection, len(files), len(chunks)); err != nil {
		return fmt.Errorf("save index result: %w", err)
	}

	uc.logger.Info("source indexed",
		slog.String("source_id", src.ID),
		slog.String("collection", collection),
		slog.Int("files", len(files)),
		slog.Int("chunks", len(chunks)),
	)
	return nil
}

// embedChunks fills each chunk's Vector in place, batching requests so a
// large archive does not hit the embedding backend with one giant call.
func (uc *ProcessSourceUseCase) embedChunks(ctx context.Context, chunks []domain.IndexedChunk) (int, error) {
	vectorSize := 0
	for start := 0; start < len(chunks); start += uc.cfg.EmbedBatch {
		end := start + uc.cfg.EmbedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		var vectors [][]float32
		err := capabilityCall(ctx, uc.cfg.EmbedTimeout, domain.ErrEmbeddingUnavailable, "embed chunks", func(callCtx context.Context) error {
			var embedErr error
			vectors, embedErr = uc.embedder.Embed(callCtx, texts)
			return embedErr
		})
		if err != nil {
			return 0, err
		}
		if len(vectors) != len(batch) {
			return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed chunks",
				fmt.Errorf("expected %d vectors, got %d", len(batch), len(vectors)))
		}
		for i := range batch {
			batch[i].Vector = vectors[i]
			if vectorSize == 0 {
				vectorSize = len(vectors[i])
			}
		}
	}
	if vectorSize == 0 {
		return 0, domain.WrapError(domain.ErrEmbeddingUnavailable, "embed chunks", errors.New("embedding returned empty vectors"))
	}
	return vectorSize, nil
}
