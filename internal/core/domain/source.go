package domain

import "time"

type SourceStatus string

const (
	StatusUploaded   SourceStatus = "uploaded"
	StatusProcessing SourceStatus = "processing"
	StatusReady      SourceStatus = "ready"
	StatusFailed     SourceStatus = "failed"
)

// Source is one uploaded codebase archive awaiting or past indexing.
type Source struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Filename    string       `json:"filename"`
	ArchivePath string       `json:"archive_path"`
	Strategy    Strategy     `json:"strategy"`
	Collection  string       `json:"collection,omitempty"`
	FileCount   int          `json:"file_count,omitempty"`
	ChunkCount  int          `json:"chunk_count,omitempty"`
	Status      SourceStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SourceFile is a single text file extracted from a source archive.
type SourceFile struct {
	Path    string
	Content string
}
