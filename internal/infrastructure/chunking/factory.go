package chunking

import (
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

type Config struct {
	ChunkSize int
	Overlap   int
}

// NewSet builds one chunker per indexing strategy.
func NewSet(cfg Config) []ports.Chunker {
	return []ports.Chunker{
		NewRecursiveChunker(cfg.ChunkSize, cfg.Overlap),
		NewCodeChunker(cfg.ChunkSize, cfg.Overlap),
		NewASTChunker(cfg.ChunkSize, cfg.Overlap),
	}
}
