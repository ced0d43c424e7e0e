package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
	"github.com/akulagin/rag-workbench/internal/core/usecase"
)

// Server exposes the RAG query and self-check operations as MCP tools over
// stdio, so agent runtimes can call them without going through the HTTP API.
type Server struct {
	rag     ports.QueryService
	checker ports.SelfChecker
	logger  *slog.Logger
	inner   *server.MCPServer
}

func NewServer(rag ports.QueryService, checker ports.SelfChecker, logger *slog.Logger) *Server {
	s := &Server{
		rag:     rag,
		checker: checker,
		logger:  logger,
	}

	inner := server.NewMCPServer("rag-workbench", "1.0.0",
		server.WithToolCapabilities(false),
	)

	queryTool := mcp.NewTool("rag_query",
		mcp.WithDescription("Answer a question grounded in one indexed codebase collection. Returns the answer text and the source snippets it drew on."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the indexed collection to search"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("How many snippets to retrieve (default 3)"),
		),
		mcp.WithString("language",
			mcp.Description("Restrict retrieval to one language, e.g. go or python"),
		),
	)
	inner.AddTool(queryTool, s.handleQuery)

	selfCheckTool := mcp.NewTool("rag_selfcheck",
		mcp.WithDescription("Check a previously produced answer for hallucination by regenerating it under sampling and comparing embeddings. Returns similarity_score, is_hallucinating and a rationale."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The original question"),
		),
		mcp.WithString("answer",
			mcp.Required(),
			mcp.Description("The answer to verify"),
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Name of the indexed collection the answer was grounded in"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("How many snippets to retrieve for the resample (default 3)"),
		),
	)
	inner.AddTool(selfCheckTool, s.handleSelfCheck)

	s.inner = inner
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.inner)
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	answer, err := s.rag.Answer(ctx, question, domain.ContextScope{
		Collection: collection,
		TopK:       intArg(args, "top_k"),
	}, domain.SearchFilter{
		Language: stringArg(args, "language"),
	})
	if err != nil {
		s.logger.Error("rag_query tool failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonToolResult(answer)
}

func (s *Server) handleSelfCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := req.RequireString("answer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	collection, err := req.RequireString("collection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict, err := s.checker.Evaluate(ctx, query, answer, domain.ContextScope{
		Collection: collection,
		TopK:       intArg(req.GetArguments(), "top_k"),
	})
	if err != nil {
		s.logger.Error("rag_selfcheck tool failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonToolResult(usecase.FormatVerdict(*verdict))
}

func jsonToolResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// JSON numbers arrive as float64 through the protocol layer.
func intArg(args map[string]any, key string) int {
	v, ok := args[key].(float64)
	if !ok {
		return 0
	}
	return int(v)
}
