package domain

// ContextScope bounds which indexed material a generation call may draw on:
// one collection and the retrieval depth inside it.
type ContextScope struct {
	Collection string
	TopK       int
}

// Verdict is the outcome of one consistency check. It is derived once per
// invocation and never persisted server-side.
//
// IsHallucinating is true exactly when SimilarityScore is at or below the
// configured threshold.
type Verdict struct {
	SimilarityScore float64 `json:"similarity_score"`
	IsHallucinating bool    `json:"is_hallucinating"`
	Rationale       string  `json:"rationale"`
}
