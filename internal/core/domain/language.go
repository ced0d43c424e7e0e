package domain

import (
	"path/filepath"
	"strings"
)

const (
	LangGo       = "go"
	LangPython   = "python"
	LangMarkdown = "markdown"
	LangText     = "text"
)

// LanguageForPath maps a file path to the language label stored alongside
// its chunks. Unknown extensions fall back to plain text.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LangGo
	case ".py":
		return LangPython
	case ".md", ".markdown":
		return LangMarkdown
	default:
		return LangText
	}
}
