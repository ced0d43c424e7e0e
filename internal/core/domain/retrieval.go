package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strategy selects how source files are split before indexing.
type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyCode      Strategy = "code"
	StrategyAST       Strategy = "ast"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case StrategyRecursive:
		return StrategyRecursive, nil
	case StrategyCode:
		return StrategyCode, nil
	case StrategyAST:
		return StrategyAST, nil
	case "":
		return StrategyCode, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse strategy", fmt.Errorf("unknown strategy %q", raw))
	}
}

type SearchFilter struct {
	Language string
}

// Snippet is one retrieved chunk of indexed source code.
type Snippet struct {
	SourceID   string  `json:"source_id"`
	Path       string  `json:"path"`
	Language   string  `json:"language"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

type Answer struct {
	Text    string    `json:"text"`
	Sources []Snippet `json:"sources"`
}

// IndexedChunk is a chunk paired with its embedding, ready for upsert.
type IndexedChunk struct {
	SourceID   string
	Path       string
	Language   string
	ChunkIndex int
	Text       string
	Vector     []float32
}

// GenerateOptions tune a single generation call. Temperature above zero
// makes the completion non-deterministic across calls.
type GenerateOptions struct {
	Temperature float64
}

// Collection is one indexed (source, strategy) pair in the vector store.
type Collection struct {
	Name       string    `json:"name"`
	SourceID   string    `json:"source_id"`
	Strategy   Strategy  `json:"strategy"`
	EmbedModel string    `json:"embed_model"`
	VectorSize int       `json:"vector_size"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

const maxCollectionNameLen = 48

// CollectionName derives the vector store collection for a source indexed
// under a strategy with a given embedding model. Non-alphanumeric runes
// collapse to underscores and the result is capped at 48 runes, so the
// name stays valid across vector store backends.
func CollectionName(sourceName string, strategy Strategy, embedModel string) string {
	modelSlug := embedModel
	if idx := strings.LastIndex(modelSlug, "/"); idx >= 0 {
		modelSlug = modelSlug[idx+1:]
	}
	name := sanitizeIdent(sourceName) + "_" + sanitizeIdent(string(strategy)) + "_" + sanitizeIdent(modelSlug)
	runes := []rune(name)
	if len(runes) > maxCollectionNameLen {
		runes = runes[:maxCollectionNameLen]
	}
	return strings.Trim(string(runes), "_")
}

func sanitizeIdent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, strings.TrimSpace(s))
}
