package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/akulagin/rag-workbench/internal/core/domain"
)

type queryFake struct {
	gotQuestion string
	gotScope    domain.ContextScope
	gotFilter   domain.SearchFilter
	answer      *domain.Answer
	err         error
}

func (f *queryFake) Answer(_ context.Context, question string, scope domain.ContextScope, filter domain.SearchFilter) (*domain.Answer, error) {
	f.gotQuestion = question
	f.gotScope = scope
	f.gotFilter = filter
	return f.answer, f.err
}

type checkerFake struct {
	gotQuery  string
	gotAnswer string
	gotScope  domain.ContextScope
	verdict   *domain.Verdict
	err       error
}

func (f *checkerFake) Evaluate(_ context.Context, query, originalAnswer string, scope domain.ContextScope) (*domain.Verdict, error) {
	f.gotQuery = query
	f.gotAnswer = originalAnswer
	f.gotScope = scope
	return f.verdict, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestQueryToolReturnsAnswerJSON(t *testing.T) {
	rag := &queryFake{answer: &domain.Answer{
		Text: "the worker consumes upload events",
		Sources: []domain.Snippet{
			{Path: "cmd/worker/main.go", Score: 0.88},
		},
	}}
	srv := NewServer(rag, &checkerFake{}, discardLogger())

	result, err := srv.handleQuery(context.Background(), toolRequest("rag_query", map[string]any{
		"question":   "what does the worker do?",
		"collection": "payments_code_nomic",
		"top_k":      float64(5),
		"language":   "go",
	}))
	if err != nil {
		t.Fatalf("handleQuery() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	if rag.gotScope.Collection != "payments_code_nomic" || rag.gotScope.TopK != 5 {
		t.Fatalf("scope not forwarded: %+v", rag.gotScope)
	}
	if rag.gotFilter.Language != "go" {
		t.Fatalf("language filter not forwarded: %+v", rag.gotFilter)
	}

	var answer domain.Answer
	if err := json.Unmarshal([]byte(resultText(t, result)), &answer); err != nil {
		t.Fatalf("tool result is not answer JSON: %v", err)
	}
	if answer.Text == "" || len(answer.Sources) != 1 {
		t.Fatalf("unexpected answer payload: %+v", answer)
	}
}

func TestQueryToolRequiresQuestion(t *testing.T) {
	srv := NewServer(&queryFake{}, &checkerFake{}, discardLogger())

	result, err := srv.handleQuery(context.Background(), toolRequest("rag_query", map[string]any{
		"collection": "payments_code_nomic",
	}))
	if err != nil {
		t.Fatalf("handleQuery() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing question")
	}
}

func TestSelfCheckToolReturnsVerdictJSON(t *testing.T) {
	checker := &checkerFake{verdict: &domain.Verdict{
		SimilarityScore: 0.82,
		IsHallucinating: false,
		Rationale:       "resampled answer agrees with the original (similarity 0.820 > threshold 0.500)",
	}}
	srv := NewServer(&queryFake{}, checker, discardLogger())

	result, err := srv.handleSelfCheck(context.Background(), toolRequest("rag_selfcheck", map[string]any{
		"query":      "how are archives stored?",
		"answer":     "on local disk under data/archives",
		"collection": "payments_code_nomic",
	}))
	if err != nil {
		t.Fatalf("handleSelfCheck() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	if checker.gotQuery != "how are archives stored?" || checker.gotAnswer != "on local disk under data/archives" {
		t.Fatalf("check inputs not forwarded: %+v", checker)
	}

	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(resultText(t, result)), &verdict); err != nil {
		t.Fatalf("tool result is not verdict JSON: %v", err)
	}
	if verdict.IsHallucinating || verdict.SimilarityScore != 0.82 {
		t.Fatalf("unexpected verdict payload: %+v", verdict)
	}
}

func TestSelfCheckToolSurfacesDomainFailure(t *testing.T) {
	checker := &checkerFake{
		err: domain.WrapError(domain.ErrEmptyContext, "generate sample", errors.New("no snippets retrieved")),
	}
	srv := NewServer(&queryFake{}, checker, discardLogger())

	result, err := srv.handleSelfCheck(context.Background(), toolRequest("rag_selfcheck", map[string]any{
		"query":      "q",
		"answer":     "a",
		"collection": "missing",
	}))
	if err != nil {
		t.Fatalf("handleSelfCheck() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for empty retrieval context")
	}
}
