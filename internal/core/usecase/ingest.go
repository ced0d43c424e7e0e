package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

type IngestSourceUseCase struct {
	repo    ports.SourceRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestSourceUseCase(
	repo ports.SourceRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestSourceUseCase {
	return &IngestSourceUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestSourceUseCase) Upload(
	ctx context.Context,
	name string,
	strategy domain.Strategy,
	filename string,
	body io.Reader,
) (*domain.Source, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload source", errors.New("only zip archives are accepted"))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save archive: %w", err)
	}

	src := &domain.Source{
		ID:          id,
		Name:        name,
		Filename:    filename,
		ArchivePath: storageKey,
		Strategy:    strategy,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source metadata: %w", err)
	}

	if err := uc.queue.PublishSourceUploaded(ctx, src.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return src, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "source.zip"
	}
	return base
}
