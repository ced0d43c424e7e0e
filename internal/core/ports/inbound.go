package ports

import (
	"context"
	"io"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// SourceIngestor is the inbound contract for archive upload orchestration.
type SourceIngestor interface {
	Upload(ctx context.Context, name string, strategy domain.Strategy, filename string, body io.Reader) (*domain.Source, error)
}

// SourceReader is the inbound read model for source metadata/state.
type SourceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
}

// SourceProcessor is the inbound contract for asynchronous indexing.
type SourceProcessor interface {
	ProcessByID(ctx context.Context, sourceID string) error
}

// QueryService answers questions grounded in one indexed collection.
type QueryService interface {
	Answer(ctx context.Context, question string, scope domain.ContextScope, filter domain.SearchFilter) (*domain.Answer, error)
}

// SelfChecker runs the resample-and-compare consistency check against an
// already delivered answer.
type SelfChecker interface {
	Evaluate(ctx context.Context, query, originalAnswer string, scope domain.ContextScope) (*domain.Verdict, error)
}

// CollectionLister exposes the indexed collections registry.
type CollectionLister interface {
	List(ctx context.Context) ([]domain.Collection, error)
}
