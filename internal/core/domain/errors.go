package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrSourceNotFound        = errors.New("source not found")
	ErrCollectionNotFound    = errors.New("collection not found")
	ErrEmptyContext          = errors.New("empty retrieval context")
	ErrEmbeddingUnavailable  = errors.New("embedding capability unavailable")
	ErrGenerationUnavailable = errors.New("generation capability unavailable")
	ErrTimeout               = errors.New("capability call timed out")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
