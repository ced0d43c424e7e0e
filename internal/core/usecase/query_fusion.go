package usecase

import (
	"fmt"
	"sort"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type fusedCandidate struct {
	snippet domain.Snippet
	score   float64
}

func fuseCandidatesRRF(semantic, lexical []domain.Snippet, rrfK int) []domain.Snippet {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedCandidate, len(semantic)+len(lexical))
	addList := func(snippets []domain.Snippet) {
		for rank, snippet := range snippets {
			key := snippetKey(snippet)
			candidate := acc[key]
			candidate.snippet = preferRicherSnippet(candidate.snippet, snippet)
			candidate.score += 1.0 / float64(rrfK+rank+1)
			acc[key] = candidate
		}
	}

	addList(semantic)
	addList(lexical)

	out := make([]domain.Snippet, 0, len(acc))
	for _, c := range acc {
		snippet := c.snippet
		snippet.Score = c.score
		out = append(out, snippet)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		if out[i].ChunkIndex != out[j].ChunkIndex {
			return out[i].ChunkIndex < out[j].ChunkIndex
		}
		return out[i].Path < out[j].Path
	})

	return out
}

func trimCandidates(snippets []domain.Snippet, limit int) []domain.Snippet {
	if limit <= 0 || len(snippets) <= limit {
		return snippets
	}
	return snippets[:limit]
}

func snippetKey(snippet domain.Snippet) string {
	if snippet.SourceID != "" && snippet.ChunkIndex >= 0 {
		return fmt.Sprintf("%s:%s:%d", snippet.SourceID, snippet.Path, snippet.ChunkIndex)
	}
	return fmt.Sprintf("%s|%s|%s", snippet.SourceID, snippet.Path, snippet.Text)
}

func preferRicherSnippet(current, candidate domain.Snippet) domain.Snippet {
	if current.SourceID == "" && current.Path == "" && current.Text == "" {
		return candidate
	}
	if current.Text == "" && candidate.Text != "" {
		current.Text = candidate.Text
	}
	if current.Path == "" && candidate.Path != "" {
		current.Path = candidate.Path
	}
	if current.Language == "" && candidate.Language != "" {
		current.Language = candidate.Language
	}
	if current.SourceID == "" && candidate.SourceID != "" {
		current.SourceID = candidate.SourceID
	}
	if current.ChunkIndex < 0 && candidate.ChunkIndex >= 0 {
		current.ChunkIndex = candidate.ChunkIndex
	}
	return current
}
