package chunking

import (
	"github.com/akulagin/rag-workbench/internal/core/domain"
)

// Separator cascades that cut at declaration boundaries before falling
// back to blank lines and words.
var (
	goSeparators = []string{"\nfunc ", "\ntype ", "\nconst ", "\nvar ", "\n\n", "\n", " "}

	pythonSeparators = []string{"\nclass ", "\ndef ", "\n\tdef ", "\n    def ", "\n\n", "\n", " "}

	markdownSeparators = []string{"\n## ", "\n### ", "\n\n", "\n", " "}
)

// CodeChunker picks a language-aware separator cascade per file and splits
// with the recursive algorithm.
type CodeChunker struct {
	byLanguage map[string]*RecursiveChunker
	fallback   *RecursiveChunker
}

func NewCodeChunker(size, overlap int) *CodeChunker {
	return &CodeChunker{
		byLanguage: map[string]*RecursiveChunker{
			domain.LangGo:       newRecursive(size, overlap, goSeparators),
			domain.LangPython:   newRecursive(size, overlap, pythonSeparators),
			domain.LangMarkdown: newRecursive(size, overlap, markdownSeparators),
		},
		fallback: NewRecursiveChunker(size, overlap),
	}
}

func (c *CodeChunker) Name() domain.Strategy { return domain.StrategyCode }

func (c *CodeChunker) Split(file domain.SourceFile) []string {
	if chunker, ok := c.byLanguage[domain.LanguageForPath(file.Path)]; ok {
		return chunker.SplitText(file.Content)
	}
	return c.fallback.SplitText(file.Content)
}
