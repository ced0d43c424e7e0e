package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

func TestEnsureCollectionDeclaresNamedVectors(t *testing.T) {
	var captured map[string]any
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Method != http.MethodPut || r.URL.Path != "/collections/billing_code_nomic" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	}))
	defer server.Close()

	client := New(server.URL)
	if err := client.EnsureCollection(context.Background(), "billing_code_nomic", 768); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}

	vectors, _ := captured["vectors"].(map[string]any)
	dense, _ := vectors["dense"].(map[string]any)
	if size, _ := dense["size"].(float64); size != 768 {
		t.Fatalf("dense vector size not declared: %v", captured)
	}
	if _, ok := captured["sparse_vectors"].(map[string]any)["lexical"]; !ok {
		t.Fatalf("lexical sparse vector not declared: %v", captured)
	}

	// second call is served from the ensured cache
	if err := client.EnsureCollection(context.Background(), "billing_code_nomic", 768); err != nil {
		t.Fatalf("EnsureCollection() second call error = %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected one upstream request, got %d", requests)
	}
}

func TestIndexChunksUpsertsBothVectorNames(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/col/points" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.IndexChunks(context.Background(), "col", []domain.IndexedChunk{{
		SourceID:   "src-1",
		Path:       "internal/pay/charge.go",
		Language:   "go",
		ChunkIndex: 0,
		Text:       "func Charge() error",
		Vector:     []float32{0.1, 0.2},
	}})
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}

	points, _ := captured["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected one point, got %v", captured)
	}
	point, _ := points[0].(map[string]any)
	vector, _ := point["vector"].(map[string]any)
	if _, ok := vector["dense"]; !ok {
		t.Fatalf("point missing dense vector: %v", point)
	}
	lexical, _ := vector["lexical"].(map[string]any)
	if indices, _ := lexical["indices"].([]any); len(indices) == 0 {
		t.Fatalf("point missing lexical sparse vector: %v", point)
	}
	payload, _ := point["payload"].(map[string]any)
	if payload["source_id"] != "src-1" || payload["path"] != "internal/pay/charge.go" {
		t.Fatalf("payload incomplete: %v", payload)
	}
}

func TestSearchMapsPayloadToSnippets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]any
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		vector, _ := reqBody["vector"].(map[string]any)
		if vector["name"] != "dense" {
			t.Fatalf("semantic search must target the dense vector, got %v", vector)
		}
		_, _ = w.Write([]byte(`{"result":[{"score":0.87,"payload":{"source_id":"s","path":"a.go","language":"go","chunk_index":2,"text":"body"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	snippets, err := client.Search(context.Background(), "col", []float32{1, 0}, 3, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(snippets) != 1 {
		t.Fatalf("expected one snippet, got %d", len(snippets))
	}
	got := snippets[0]
	if got.SourceID != "s" || got.Path != "a.go" || got.ChunkIndex != 2 || got.Score != 0.87 {
		t.Fatalf("snippet mapping wrong: %+v", got)
	}
}

func TestSearchLanguageFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Search(context.Background(), "col", []float32{1}, 3, domain.SearchFilter{Language: "go"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["filter"]; !ok {
		t.Fatalf("language filter not forwarded: %v", captured)
	}
}

func TestSearchUnknownCollectionIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Search(context.Background(), "ghost", []float32{1}, 3, domain.SearchFilter{})
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestSearchLexicalTargetsSparseVector(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.SearchLexical(context.Background(), "col", "retry backoff", 5, domain.SearchFilter{}); err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	vector, _ := captured["vector"].(map[string]any)
	if vector["name"] != "lexical" {
		t.Fatalf("lexical search must target the sparse vector, got %v", vector)
	}
}

func TestSearchLexicalNoiseQueryShortCircuits(t *testing.T) {
	client := New("http://unreachable.invalid")
	snippets, err := client.SearchLexical(context.Background(), "col", "___---!!!", 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("noise query must not hit the backend, got %v", err)
	}
	if len(snippets) != 0 {
		t.Fatalf("expected no snippets, got %v", snippets)
	}
}
