package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// capabilityCall runs one external capability call under an optional
// per-call deadline. A blown deadline surfaces as domain.ErrTimeout; caller
// cancellation propagates untouched so abandoned requests are not
// misreported as capability failures. Any other failure is wrapped with the
// capability's unavailability kind unless it already carries a domain kind.
func capabilityCall(ctx context.Context, timeout time.Duration, kind error, operation string, fn func(context.Context) error) error {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimeout, operation, err)
	}
	if isDomainKind(err) {
		return err
	}
	return domain.WrapError(kind, operation, err)
}

func isDomainKind(err error) bool {
	for _, kind := range []error{
		domain.ErrInvalidInput,
		domain.ErrSourceNotFound,
		domain.ErrCollectionNotFound,
		domain.ErrEmptyContext,
		domain.ErrEmbeddingUnavailable,
		domain.ErrGenerationUnavailable,
		domain.ErrTimeout,
		domain.ErrTemporary,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
