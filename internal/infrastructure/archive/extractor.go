package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
)

const (
	// maxFileBytes skips generated bundles and vendored blobs.
	maxFileBytes = 1 << 20

	maxArchiveBytes = 256 << 20
)

var skippedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
}

// Extractor unpacks a stored zip archive into UTF-8 text files, dropping
// directories, VCS internals and binary content.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, src *domain.Source) ([]domain.SourceFile, error) {
	reader, err := e.storage.Open(ctx, src.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open source archive: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source archive: %w", err)
	}
	if len(raw) > maxArchiveBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract archive",
			fmt.Errorf("archive exceeds %d bytes", maxArchiveBytes))
	}

	zipReader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract archive", err)
	}

	out := make([]domain.SourceFile, 0, len(zipReader.File))
	for _, entry := range zipReader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		cleanPath, ok := normalizeEntryPath(entry.Name)
		if !ok {
			continue
		}
		if entry.UncompressedSize64 > maxFileBytes {
			continue
		}

		f, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", entry.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", entry.Name, err)
		}
		if len(content) > maxFileBytes || !utf8.Valid(content) {
			continue
		}
		text := strings.TrimSpace(string(content))
		if text == "" {
			continue
		}

		out = append(out, domain.SourceFile{
			Path:    cleanPath,
			Content: text,
		})
	}
	return out, nil
}

// normalizeEntryPath rejects traversal entries and anything under a
// skipped directory. Returned paths are slash-separated and relative.
func normalizeEntryPath(name string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if cleaned == "." || cleaned == "" {
		return "", false
	}
	if strings.HasPrefix(cleaned, "/") || strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	for _, part := range strings.Split(cleaned, "/") {
		if _, skip := skippedDirs[part]; skip {
			return "", false
		}
		if strings.HasPrefix(part, ".") && part != "." {
			return "", false
		}
	}
	return cleaned, true
}
