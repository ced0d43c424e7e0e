package usecase

import (
	"strings"
	"testing"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

func TestFormatVerdictIsLosslessProjection(t *testing.T) {
	v := domain.Verdict{
		SimilarityScore: 0.73,
		IsHallucinating: false,
		Rationale:       rationaleFor(0.73, 0.5),
	}

	out := FormatVerdict(v)
	if out.SimilarityScore != v.SimilarityScore {
		t.Fatalf("score changed: %v != %v", out.SimilarityScore, v.SimilarityScore)
	}
	if out.IsHallucinating != v.IsHallucinating {
		t.Fatalf("flag changed")
	}
	if out.Rationale != v.Rationale {
		t.Fatalf("rationale changed")
	}
}

func TestRationaleUsesExactlyTwoTemplates(t *testing.T) {
	consistent := rationaleFor(0.82, 0.5)
	divergent := rationaleFor(0.31, 0.5)
	boundary := rationaleFor(0.5, 0.5)

	if !strings.Contains(consistent, "agrees with the original") {
		t.Fatalf("unexpected consistent rationale %q", consistent)
	}
	if !strings.Contains(divergent, "diverges from the original") {
		t.Fatalf("unexpected divergent rationale %q", divergent)
	}
	if !strings.Contains(boundary, "diverges from the original") {
		t.Fatalf("boundary score must use the divergent template, got %q", boundary)
	}
}
