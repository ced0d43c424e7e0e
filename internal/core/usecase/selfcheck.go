package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

const DefaultSelfCheckThreshold = 0.5

type SelfCheckConfig struct {
	// Threshold is the similarity cutoff: a score at or below it classifies
	// the original answer as a potential hallucination. Fixed per deployment,
	// never per request.
	Threshold float64
}

func (c SelfCheckConfig) normalize() SelfCheckConfig {
	out := c
	if out.Threshold <= 0 || out.Threshold > 1 {
		out.Threshold = DefaultSelfCheckThreshold
	}
	return out
}

// SelfCheckUseCase orchestrates one consistency check: regenerate an answer
// under sampling, compare it to the original by embedding similarity, and
// classify against the threshold. There are no retries here; a retried
// sample would no longer be the first resample the verdict claims to
// describe, so collaborator failures propagate to the caller unmodified.
type SelfCheckUseCase struct {
	sampler   ports.SampleGenerator
	scorer    ports.SimilarityScorer
	threshold float64
}

func NewSelfCheckUseCase(sampler ports.SampleGenerator, scorer ports.SimilarityScorer, cfg SelfCheckConfig) *SelfCheckUseCase {
	cfg = cfg.normalize()
	return &SelfCheckUseCase{
		sampler:   sampler,
		scorer:    scorer,
		threshold: cfg.Threshold,
	}
}

func (uc *SelfCheckUseCase) Evaluate(ctx context.Context, query, originalAnswer string, scope domain.ContextScope) (*domain.Verdict, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "self-check", errors.New("query is empty"))
	}
	if strings.TrimSpace(originalAnswer) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "self-check", errors.New("original answer is empty"))
	}

	sampled, err := uc.sampler.GenerateSample(ctx, query, scope)
	if err != nil {
		return nil, err
	}

	score, err := uc.scorer.Score(ctx, originalAnswer, sampled)
	if err != nil {
		return nil, err
	}

	// Boundary inclusive: a score exactly at the threshold counts as
	// hallucinating.
	hallucinating := score <= uc.threshold

	return &domain.Verdict{
		SimilarityScore: score,
		IsHallucinating: hallucinating,
		Rationale:       rationaleFor(score, uc.threshold),
	}, nil
}
