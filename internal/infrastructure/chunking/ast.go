package chunking

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// ASTChunker cuts Go and Python files at top-level declaration boundaries
// using tree-sitter, grouping adjacent small declarations into one chunk.
// Files in other languages, and files the grammar cannot parse, fall back
// to the code chunker.
type ASTChunker struct {
	size     int
	oversize *RecursiveChunker
	fallback *CodeChunker
}

func NewASTChunker(size, overlap int) *ASTChunker {
	if size <= 0 {
		size = 1000
	}
	return &ASTChunker{
		size:     size,
		oversize: NewRecursiveChunker(size, overlap),
		fallback: NewCodeChunker(size, overlap),
	}
}

func (c *ASTChunker) Name() domain.Strategy { return domain.StrategyAST }

func (c *ASTChunker) Split(file domain.SourceFile) []string {
	language := grammarFor(file.Path)
	if language == nil {
		return c.fallback.Split(file)
	}

	// new parser per call, tree-sitter parsers are not safe to share
	parser := sitter.NewParser()
	parser.SetLanguage(language)

	content := []byte(file.Content)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return c.fallback.Split(file)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return c.fallback.Split(file)
	}

	return c.groupDeclarations(root, content)
}

func (c *ASTChunker) groupDeclarations(root *sitter.Node, content []byte) []string {
	out := make([]string, 0, 8)
	var buf strings.Builder

	flush := func() {
		if chunk := strings.TrimSpace(buf.String()); chunk != "" {
			out = append(out, chunk)
		}
		buf.Reset()
	}

	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		node := root.NamedChild(i)
		text := string(content[node.StartByte():node.EndByte()])
		length := utf8.RuneCountInString(text)

		if length > c.size {
			flush()
			out = append(out, c.oversize.SplitText(text)...)
			continue
		}
		if utf8.RuneCountInString(buf.String())+length > c.size {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(text)
	}
	flush()
	return out
}

func grammarFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}
