package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

func TestRecursiveShortTextSingleChunk(t *testing.T) {
	c := NewRecursiveChunker(100, 10)
	chunks := c.SplitText("short paragraph")
	if len(chunks) != 1 || chunks[0] != "short paragraph" {
		t.Fatalf("expected one untouched chunk, got %v", chunks)
	}
}

func TestRecursiveBlankTextYieldsNothing(t *testing.T) {
	c := NewRecursiveChunker(100, 10)
	if chunks := c.SplitText("  \n\t "); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %v", chunks)
	}
}

func TestRecursivePrefersParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("alpha ", 12) // ~72 runes
	para2 := strings.Repeat("beta ", 12)
	c := NewRecursiveChunker(80, 0)

	chunks := c.SplitText(para1 + "\n\n" + para2)
	if len(chunks) != 2 {
		t.Fatalf("expected split at the blank line, got %d chunks: %v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "beta") || strings.Contains(chunks[1], "alpha") {
		t.Fatalf("paragraphs must not bleed across chunks: %v", chunks)
	}
}

func TestRecursiveRespectsChunkSize(t *testing.T) {
	text := strings.Repeat("word ", 400)
	c := NewRecursiveChunker(100, 20)

	chunks := c.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("long text must produce multiple chunks")
	}
	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 100 {
			t.Fatalf("chunk %d exceeds size: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
}

func TestRecursiveWindowFallbackNoSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	c := NewRecursiveChunker(100, 0)

	chunks := c.SplitText(text)
	if len(chunks) != 3 {
		t.Fatalf("unbroken text must fall back to the rune window, got %d chunks", len(chunks))
	}
}

func TestRecursiveOverlapCarriesTail(t *testing.T) {
	text := strings.Repeat("token ", 60)
	c := NewRecursiveChunker(60, 18)

	chunks := c.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks")
	}
	tail := chunks[0][len(chunks[0])-5:]
	if !strings.Contains(chunks[1], tail) {
		t.Fatalf("second chunk must start with overlap from the first: %q vs %q", chunks[0], chunks[1])
	}
}

func TestCodeChunkerCutsAtGoDeclarations(t *testing.T) {
	src := "package pay\n\nfunc Charge() error {\n\treturn nil\n}\n\nfunc Refund() error {\n\treturn nil\n}\n"
	c := NewCodeChunker(48, 0)

	chunks := c.Split(domain.SourceFile{Path: "internal/pay/charge.go", Content: src})
	if len(chunks) < 2 {
		t.Fatalf("expected declaration-boundary split, got %v", chunks)
	}
	var chargeChunk, refundChunk bool
	for _, chunk := range chunks {
		if strings.Contains(chunk, "func Charge") && !strings.Contains(chunk, "func Refund") {
			chargeChunk = true
		}
		if strings.Contains(chunk, "func Refund") && !strings.Contains(chunk, "func Charge") {
			refundChunk = true
		}
	}
	if !chargeChunk || !refundChunk {
		t.Fatalf("functions must land in separate chunks: %v", chunks)
	}
}

func TestCodeChunkerUnknownExtensionFallsBack(t *testing.T) {
	c := NewCodeChunker(100, 0)
	chunks := c.Split(domain.SourceFile{Path: "Makefile", Content: "build:\n\tgo build ./..."})
	if len(chunks) != 1 {
		t.Fatalf("expected plain text handling, got %v", chunks)
	}
}

func TestASTChunkerGroupsTopLevelDeclarations(t *testing.T) {
	src := "package m\n\nfunc Add(a, b int) int {\n\treturn a + b\n}\n\nfunc Sub(a, b int) int {\n\treturn a - b\n}\n"
	c := NewASTChunker(60, 0)

	chunks := c.Split(domain.SourceFile{Path: "math.go", Content: src})
	if len(chunks) < 2 {
		t.Fatalf("expected declarations split into chunks, got %v", chunks)
	}
	for _, chunk := range chunks {
		if strings.Contains(chunk, "func Add") && strings.Contains(chunk, "func Sub") {
			t.Fatalf("both functions in one chunk despite size cap: %q", chunk)
		}
	}
	joined := strings.Join(chunks, "\n")
	if !strings.Contains(joined, "func Add") || !strings.Contains(joined, "func Sub") {
		t.Fatalf("no declaration may be dropped: %v", chunks)
	}
}

func TestASTChunkerSingleChunkWhenSmall(t *testing.T) {
	src := "package m\n\nfunc One() int { return 1 }\n"
	c := NewASTChunker(1000, 0)

	chunks := c.Split(domain.SourceFile{Path: "one.go", Content: src})
	if len(chunks) != 1 {
		t.Fatalf("small file must stay one chunk, got %v", chunks)
	}
	if !strings.Contains(chunks[0], "func One") {
		t.Fatalf("chunk lost its declaration: %q", chunks[0])
	}
}

func TestASTChunkerNonParsableFallsBack(t *testing.T) {
	c := NewASTChunker(100, 0)
	chunks := c.Split(domain.SourceFile{Path: "README.md", Content: "# Title\n\nBody text."})
	if len(chunks) == 0 {
		t.Fatalf("markdown must fall back to the code chunker")
	}
}

func TestNewSetCoversEveryStrategy(t *testing.T) {
	set := NewSet(Config{ChunkSize: 1000, Overlap: 200})
	seen := map[domain.Strategy]bool{}
	for _, chunker := range set {
		seen[chunker.Name()] = true
	}
	for _, strategy := range []domain.Strategy{domain.StrategyRecursive, domain.StrategyCode, domain.StrategyAST} {
		if !seen[strategy] {
			t.Fatalf("missing chunker for %q", strategy)
		}
	}
}
