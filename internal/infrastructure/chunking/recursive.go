package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// RecursiveChunker splits text by a cascade of separators, falling back to
// a plain rune window when no separator produces small enough pieces.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators []string
}

var textSeparators = []string{"\n\n", "\n", " "}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	return newRecursive(size, overlap, textSeparators)
}

func newRecursive(size, overlap int, separators []string) *RecursiveChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &RecursiveChunker{
		size:       size,
		overlap:    overlap,
		separators: separators,
	}
}

func (c *RecursiveChunker) Name() domain.Strategy { return domain.StrategyRecursive }

func (c *RecursiveChunker) Split(file domain.SourceFile) []string {
	return c.SplitText(file.Content)
}

func (c *RecursiveChunker) SplitText(text string) []string {
	return c.splitWith(text, c.separators)
}

func (c *RecursiveChunker) splitWith(text string, separators []string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) <= c.size {
		return []string{trimmed}
	}
	if len(separators) == 0 {
		return c.window(trimmed)
	}

	sep := separators[0]
	rest := separators[1:]
	if !strings.Contains(text, sep) {
		return c.splitWith(text, rest)
	}

	out := make([]string, 0, 8)
	var buf []rune
	dirty := false

	flushCarry := func() {
		if !dirty {
			return
		}
		if chunk := strings.TrimSpace(string(buf)); chunk != "" {
			out = append(out, chunk)
		}
		// keep a tail of the flushed chunk so adjacent chunks share context
		if c.overlap > 0 && len(buf) > c.overlap {
			buf = append(buf[:0:0], buf[len(buf)-c.overlap:]...)
		} else {
			buf = buf[:0]
		}
		dirty = false
	}

	for _, part := range splitKeepSep(text, sep) {
		runes := []rune(part)
		if len(runes) > c.size {
			flushCarry()
			buf = buf[:0]
			out = append(out, c.splitWith(part, rest)...)
			continue
		}
		if len(buf)+len(runes) > c.size {
			flushCarry()
		}
		buf = append(buf, runes...)
		dirty = true
	}
	flushCarry()
	return out
}

// window is the last-resort splitter for text with no usable separators.
func (c *RecursiveChunker) window(text string) []string {
	runes := []rune(text)
	step := c.size - c.overlap
	if step <= 0 {
		step = c.size
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitKeepSep splits text on sep but keeps the separator at the head of
// each following piece, so code markers like "\nfunc " survive the cut.
func splitKeepSep(text, sep string) []string {
	pieces := strings.Split(text, sep)
	out := make([]string, 0, len(pieces))
	for i, piece := range pieces {
		if i > 0 {
			piece = sep + piece
		}
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
