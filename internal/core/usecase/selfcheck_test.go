package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type samplerFake struct {
	mu      sync.Mutex
	calls   int
	queries []string
	answer  string
	err     error
}

func (f *samplerFake) GenerateSample(_ context.Context, query string, _ domain.ContextScope) (string, error) {
	f.mu.Lock()
	f.calls++
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type scorerFake struct {
	mu    sync.Mutex
	calls int
	score float64
	err   error
}

func (f *scorerFake) Score(_ context.Context, _, _ string) (float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

func TestEvaluateConsistentAboveThreshold(t *testing.T) {
	sampler := &samplerFake{answer: "sampled"}
	scorer := &scorerFake{score: 0.82}
	uc := NewSelfCheckUseCase(sampler, scorer, SelfCheckConfig{Threshold: 0.5})

	verdict, err := uc.Evaluate(context.Background(), "how is auth handled?", "original answer", domain.ContextScope{Collection: "repo_code_model", TopK: 3})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if verdict.IsHallucinating {
		t.Fatalf("score 0.82 above threshold 0.5 must not be hallucinating")
	}
	if verdict.SimilarityScore != 0.82 {
		t.Fatalf("expected score 0.82, got %v", verdict.SimilarityScore)
	}
	if !strings.Contains(verdict.Rationale, "agrees with the original") {
		t.Fatalf("expected consistent rationale template, got %q", verdict.Rationale)
	}
}

func TestEvaluateDivergentBelowThreshold(t *testing.T) {
	uc := NewSelfCheckUseCase(&samplerFake{answer: "sampled"}, &scorerFake{score: 0.31}, SelfCheckConfig{Threshold: 0.5})

	verdict, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "c"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !verdict.IsHallucinating {
		t.Fatalf("score 0.31 at threshold 0.5 must be hallucinating")
	}
	if !strings.Contains(verdict.Rationale, "diverges from the original") {
		t.Fatalf("expected divergent rationale template, got %q", verdict.Rationale)
	}
}

func TestEvaluateThresholdBoundaryIsHallucinating(t *testing.T) {
	uc := NewSelfCheckUseCase(&samplerFake{answer: "sampled"}, &scorerFake{score: 0.5}, SelfCheckConfig{Threshold: 0.5})

	verdict, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "c"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !verdict.IsHallucinating {
		t.Fatalf("score exactly at threshold must classify as hallucinating")
	}
}

func TestEvaluateEmptyInputsFailBeforeCollaborators(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		answer string
	}{
		{"empty query", "   ", "answer"},
		{"empty answer", "query", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sampler := &samplerFake{answer: "sampled"}
			scorer := &scorerFake{score: 0.9}
			uc := NewSelfCheckUseCase(sampler, scorer, SelfCheckConfig{})

			_, err := uc.Evaluate(context.Background(), tc.query, tc.answer, domain.ContextScope{Collection: "c"})
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if sampler.calls != 0 || scorer.calls != 0 {
				t.Fatalf("collaborators must not be invoked on invalid input (sampler=%d scorer=%d)", sampler.calls, scorer.calls)
			}
		})
	}
}

func TestEvaluatePropagatesSamplerErrorWithoutVerdict(t *testing.T) {
	kindErr := domain.WrapError(domain.ErrCollectionNotFound, "resolve collection", errors.New("no such collection"))
	scorer := &scorerFake{score: 0.9}
	uc := NewSelfCheckUseCase(&samplerFake{err: kindErr}, scorer, SelfCheckConfig{})

	verdict, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "missing"})
	if verdict != nil {
		t.Fatalf("no verdict must be produced on sampler failure")
	}
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound to propagate, got %v", err)
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer must not run after sampler failure")
	}
}

func TestEvaluatePropagatesScorerError(t *testing.T) {
	kindErr := domain.WrapError(domain.ErrEmbeddingUnavailable, "embed passages", errors.New("connection refused"))
	uc := NewSelfCheckUseCase(&samplerFake{answer: "sampled"}, &scorerFake{err: kindErr}, SelfCheckConfig{})

	_, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "c"})
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable to propagate, got %v", err)
	}
}

func TestEvaluateDefaultsThreshold(t *testing.T) {
	uc := NewSelfCheckUseCase(&samplerFake{answer: "s"}, &scorerFake{score: 0.5}, SelfCheckConfig{Threshold: 0})
	verdict, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "c"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !verdict.IsHallucinating {
		t.Fatalf("zero-config threshold must default to %v", DefaultSelfCheckThreshold)
	}
}

func TestEvaluateConcurrentInvocationsDoNotCrossContaminate(t *testing.T) {
	consistent := NewSelfCheckUseCase(&samplerFake{answer: "s"}, &scorerFake{score: 0.95}, SelfCheckConfig{})
	divergent := NewSelfCheckUseCase(&samplerFake{answer: "s"}, &scorerFake{score: 0.05}, SelfCheckConfig{})

	var wg sync.WaitGroup
	verdicts := make([]*domain.Verdict, 40)
	for i := 0; i < len(verdicts); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uc := consistent
			if i%2 == 1 {
				uc = divergent
			}
			v, err := uc.Evaluate(context.Background(), "q", "a", domain.ContextScope{Collection: "c"})
			if err != nil {
				t.Errorf("Evaluate() error = %v", err)
				return
			}
			verdicts[i] = v
		}(i)
	}
	wg.Wait()

	for i, v := range verdicts {
		if v == nil {
			continue
		}
		wantHallucinating := i%2 == 1
		if v.IsHallucinating != wantHallucinating {
			t.Fatalf("verdict %d cross-contaminated: hallucinating=%v", i, v.IsHallucinating)
		}
	}
}
