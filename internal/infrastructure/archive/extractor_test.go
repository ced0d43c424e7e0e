package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type storageStub struct {
	data []byte
}

func (s *storageStub) Save(context.Context, string, io.Reader) error { return nil }
func (s *storageStub) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractKeepsTextFilesOnly(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"cmd/main.go":            "package main",
		"README.md":              "# Service",
		".git/config":            "[core]",
		"node_modules/x/mod.js":  "module.exports = 1",
		"assets/logo.bin":        "\xff\xfe\x00binary",
		"docs/empty.txt":         "   ",
		"vendor/lib/vendored.go": "package lib",
	})
	extractor := NewExtractor(&storageStub{data: data})

	files, err := extractor.Extract(context.Background(), &domain.Source{ArchivePath: "key.zip"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got := map[string]bool{}
	for _, f := range files {
		got[f.Path] = true
	}
	if len(files) != 2 || !got["cmd/main.go"] || !got["README.md"] {
		t.Fatalf("unexpected extracted set: %v", got)
	}
}

func TestExtractRejectsTraversalEntries(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"../escape.txt": "evil",
		"ok.txt":        "fine",
	})
	extractor := NewExtractor(&storageStub{data: data})

	files, err := extractor.Extract(context.Background(), &domain.Source{ArchivePath: "key.zip"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(files) != 1 || files[0].Path != "ok.txt" {
		t.Fatalf("traversal entry must be dropped: %v", files)
	}
}

func TestExtractInvalidZipIsInvalidInput(t *testing.T) {
	extractor := NewExtractor(&storageStub{data: []byte("this is not a zip")})

	_, err := extractor.Extract(context.Background(), &domain.Source{ArchivePath: "key.zip"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeEntryPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"src/a.go", "src/a.go", true},
		{"src\\win\\b.go", "src/win/b.go", true},
		{"../../etc/passwd", "", false},
		{"/abs/path.go", "", false},
		{".hidden/notes.md", "", false},
		{"pkg/__pycache__/mod.pyc", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeEntryPath(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("normalizeEntryPath(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
