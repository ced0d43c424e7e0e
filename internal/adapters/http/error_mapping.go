package httpadapter

import (
	"net/http"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSourceNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrCollectionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrEmptyContext):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable),
		domain.IsKind(err, domain.ErrGenerationUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorKindLabel maps a domain error to a bounded metrics label.
func errorKindLabel(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrCollectionNotFound):
		return "collection_not_found"
	case domain.IsKind(err, domain.ErrEmptyContext):
		return "empty_context"
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable):
		return "embedding_unavailable"
	case domain.IsKind(err, domain.ErrGenerationUnavailable):
		return "generation_unavailable"
	case domain.IsKind(err, domain.ErrTimeout):
		return "timeout"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	default:
		return "unknown"
	}
}
