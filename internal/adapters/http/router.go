package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/akulagin/rag-workbench/internal/core/domain"
	"github.com/akulagin/rag-workbench/internal/core/ports"
	"github.com/akulagin/rag-workbench/internal/core/usecase"
	"github.com/akulagin/rag-workbench/internal/observability/metrics"
)

// Config tunes the API-facing middleware chain. Zero values disable the
// corresponding gate.
type Config struct {
	Service          string
	RateLimitRPS     int
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	ingest      ports.SourceIngestor
	sources     ports.SourceReader
	collections ports.CollectionLister
	rag         ports.QueryService
	checker     ports.SelfChecker
	metrics     *metrics.HTTPServerMetrics
	cfg         Config
}

func NewRouter(
	ingest ports.SourceIngestor,
	sources ports.SourceReader,
	collections ports.CollectionLister,
	rag ports.QueryService,
	checker ports.SelfChecker,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg Config,
) *Router {
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	if cfg.BackpressureWait <= 0 {
		cfg.BackpressureWait = 100 * time.Millisecond
	}
	return &Router{
		ingest:      ingest,
		sources:     sources,
		collections: collections,
		rag:         rag,
		checker:     checker,
		metrics:     serverMetrics,
		cfg:         cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sources", rt.uploadSource)
	mux.HandleFunc("/v1/sources/", rt.getSourceByID)
	mux.HandleFunc("/v1/collections", rt.listCollections)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)
	mux.HandleFunc("/v1/rag/selfcheck", rt.selfCheck)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.BackpressureWait)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	strategy, err := domain.ParseStrategy(r.FormValue("strategy"))
	if err != nil {
		writeError(w, err)
		return
	}

	src, err := rt.ingest.Upload(r.Context(), r.FormValue("name"), strategy, fileHeader.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, src)
}

func (rt *Router) getSourceByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/sources/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source id is required"})
		return
	}

	src, err := rt.sources.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, src)
}

func (rt *Router) listCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	cols, err := rt.collections.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cols == nil {
		cols = []domain.Collection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": cols})
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question   string `json:"question"`
		Collection string `json:"collection"`
		TopK       int    `json:"top_k"`
		Language   string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	answer, err := rt.rag.Answer(r.Context(), req.Question, domain.ContextScope{
		Collection: req.Collection,
		TopK:       req.TopK,
	}, domain.SearchFilter{
		Language: req.Language,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(rt.cfg.Service, "query", len(answer.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) selfCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// Canonical keys are response/k; answer/top_k stay accepted as aliases.
	var req struct {
		Query      string `json:"query"`
		Response   string `json:"response"`
		Answer     string `json:"answer"`
		Collection string `json:"collection"`
		K          int    `json:"k"`
		TopK       int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	originalAnswer := req.Response
	if originalAnswer == "" {
		originalAnswer = req.Answer
	}
	topK := req.K
	if topK == 0 {
		topK = req.TopK
	}

	start := time.Now()
	verdict, err := rt.checker.Evaluate(r.Context(), req.Query, originalAnswer, domain.ContextScope{
		Collection: req.Collection,
		TopK:       topK,
	})
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordSelfCheckFailure(rt.cfg.Service, errorKindLabel(err))
		}
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordSelfCheck(rt.cfg.Service, verdict.IsHallucinating, verdict.SimilarityScore, time.Since(start))
	}
	writeJSON(w, http.StatusOK, usecase.FormatVerdict(*verdict))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
