package ports

import (
	"context"
	"io"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// SourceRepository persists and reads source archive state.
type SourceRepository interface {
	Create(ctx context.Context, src *domain.Source) error
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	UpdateStatus(ctx context.Context, id string, status domain.SourceStatus, errMessage string) error
	SaveIndexResult(ctx context.Context, id, collection string, fileCount, chunkCount int) error
}

// CollectionRepository is the registry of indexed collections. Lookups by
// unknown name fail with domain.ErrCollectionNotFound.
type CollectionRepository interface {
	Register(ctx context.Context, col *domain.Collection) error
	GetByName(ctx context.Context, name string) (*domain.Collection, error)
	List(ctx context.Context) ([]domain.Collection, error)
}

// ObjectStorage stores uploaded archives.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes source upload events.
type MessageQueue interface {
	PublishSourceUploaded(ctx context.Context, sourceID string) error
	SubscribeSourceUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// ArchiveExtractor unpacks a stored archive into text source files.
type ArchiveExtractor interface {
	Extract(ctx context.Context, src *domain.Source) ([]domain.SourceFile, error)
}

// Chunker splits one source file into indexable chunks.
type Chunker interface {
	Name() domain.Strategy
	Split(file domain.SourceFile) []string
}

// Embedder builds vectors for chunks and query text. Deterministic for a
// fixed model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs semantic/lexical search in named
// collections.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
	IndexChunks(ctx context.Context, collection string, chunks []domain.IndexedChunk) error
	Search(ctx context.Context, collection string, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.Snippet, error)
	SearchLexical(ctx context.Context, collection, queryText string, limit int, filter domain.SearchFilter) ([]domain.Snippet, error)
}

// AnswerGenerator creates an answer grounded in retrieved snippets. Calls
// with a non-zero temperature may produce different answers for identical
// input; that variance is what the self-check probes.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, snippets []domain.Snippet, opts domain.GenerateOptions) (string, error)
}

// SampleGenerator produces one fresh answer for a query under a context
// scope, independent of any previously delivered answer.
type SampleGenerator interface {
	GenerateSample(ctx context.Context, query string, scope domain.ContextScope) (string, error)
}

// SimilarityScorer maps two text passages to a similarity in [0,1].
type SimilarityScorer interface {
	Score(ctx context.Context, textA, textB string) (float64, error)
}
