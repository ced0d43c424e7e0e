package ollama

import (
	"fmt"
	"strings"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

func buildAnswerPrompt(question string, snippets []domain.Snippet) string {
	var contextBuilder strings.Builder
	for idx, snippet := range snippets {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] path=%s lang=%s score=%.3f\n%s\n\n",
			idx+1,
			snippet.Path,
			snippet.Language,
			snippet.Score,
			snippet.Text,
		))
	}

	return fmt.Sprintf(`You answer questions about a codebase using only the source excerpts below.
Cite file paths when they support the answer.
If the excerpts are insufficient, say so directly instead of guessing.

Question:
%s

Source excerpts:
%s
`, question, contextBuilder.String())
}
