package usecase

import (
	"fmt"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// The two canonical rationale templates. Every verdict carries one of
// these; adapters must not synthesize their own wording.
const (
	consistentRationaleTmpl = "resampled answer agrees with the original (similarity %.2f > threshold %.2f)"
	divergentRationaleTmpl  = "resampled answer diverges from the original (similarity %.2f <= threshold %.2f); the original answer may not be supported by the indexed sources"
)

func rationaleFor(score, threshold float64) string {
	if score <= threshold {
		return fmt.Sprintf(divergentRationaleTmpl, score, threshold)
	}
	return fmt.Sprintf(consistentRationaleTmpl, score, threshold)
}

// CheckResult is the stable wire contract for a verdict, shared by the HTTP
// and MCP adapters.
type CheckResult struct {
	SimilarityScore float64 `json:"similarity_score"`
	IsHallucinating bool    `json:"is_hallucinating"`
	Rationale       string  `json:"rationale,omitempty"`
}

// FormatVerdict projects a verdict into the wire contract. Pure and total
// over valid verdicts.
func FormatVerdict(v domain.Verdict) CheckResult {
	return CheckResult{
		SimilarityScore: v.SimilarityScore,
		IsHallucinating: v.IsHallucinating,
		Rationale:       v.Rationale,
	}
}
