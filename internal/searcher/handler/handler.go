// Package handler serves the search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/output"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/tracing"
)

// Engine is the part of *indexer.Engine the handler uses.
type Engine interface {
	SearchWith(ctx context.Context, query string, opts indexer.SearchOptions) (*indexer.Result, error)
	Tree(ctx context.Context, query string, opts parser.Options) (*parser.Node, error)
	Options() indexer.Options
	Stats() indexer.Stats
	Corpus() *words.Corpus
	Fingerprint() string
}

// Config carries the handler's defaults and limits.
type Config struct {
	Output output.Options
	// MaxConcurrent bounds the searches evaluated at once. Zero means no
	// bound.
	MaxConcurrent int
	// Trace logs the span tree of every search.
	Trace bool
}

type Handler struct {
	engine    Engine
	cache     *cache.QueryCache
	collector *analytics.Collector
	cfg       Config
	sem       chan struct{}
	logger    *slog.Logger
}

// New creates a handler. queryCache and collector may be nil.
func New(engine Engine, queryCache *cache.QueryCache, collector *analytics.Collector, cfg Config) *Handler {
	h := &Handler{
		engine:    engine,
		cache:     queryCache,
		collector: collector,
		cfg:       cfg,
		logger:    slog.Default().With("component", "search-handler"),
	}
	if cfg.MaxConcurrent > 0 {
		h.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return h
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/tree", h.Tree)
	mux.HandleFunc("GET /api/v1/tokens", h.Tokens)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health", h.Health)
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query      string   `json:"query"`
	Tree       string   `json:"tree"`
	Terms      []string `json:"terms"`
	Candidates int      `json:"candidates"`
	LatencyMs  int64    `json:"latency_ms"`
	Cached     bool     `json:"cached"`
	output.Report
}

// request is a search with its per-query overrides applied.
type request struct {
	query  string
	search indexer.SearchOptions
	output output.Options
}

func (h *Handler) parseRequest(r *http.Request) (*request, error) {
	q := r.URL.Query()
	req := &request{
		query:  q.Get("q"),
		search: h.engine.Options().Search,
		output: h.cfg.Output,
	}
	if req.query == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required")
	}
	if v := q.Get("operator"); v != "" {
		op, err := parser.ParseOperator(v)
		if err != nil {
			return nil, badParam("operator", err)
		}
		req.search.Parser.DefaultOperator = op
	}
	if v := q.Get("case"); v != "" {
		mode, err := index.ParseCaseMode(v)
		if err != nil {
			return nil, badParam("case", err)
		}
		req.search.Executor.CaseMode = mode
	}
	if v := q.Get("mode"); v != "" {
		switch v {
		case "exclusive":
			req.search.Executor.Inclusive = false
		case "inclusive":
			req.search.Executor.Inclusive = true
		default:
			return nil, badParam("mode", errors.New("must be exclusive or inclusive"))
		}
	}
	if v := q.Get("format"); v != "" {
		f, err := output.ParseFormat(v)
		if err != nil {
			return nil, badParam("format", err)
		}
		req.output.Format = f
	}
	if v := q.Get("element"); v != "" {
		el, err := words.ParseElement(v)
		if err != nil {
			return nil, badParam("element", err)
		}
		req.output.Element = el
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"fuzzy", &req.search.Executor.EditBudget},
		{"before", &req.output.Before},
		{"after", &req.output.After},
		{"max", &req.output.Maximum},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, badParam(p.name, errors.New("must be a non-negative integer"))
		}
		*p.dst = n
	}
	return req, nil
}

func badParam(name string, err error) error {
	return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "parameter %q: %v", name, err)
}

// cacheKey covers everything that changes the response body.
func (h *Handler) cacheKey(req *request) string {
	s, o := req.search, req.output
	return cache.Key(req.query,
		s.Parser.DefaultOperator.String(),
		s.Executor.CaseMode.String(),
		strconv.Itoa(s.Executor.EditBudget),
		strconv.FormatBool(s.Executor.Inclusive),
		o.Format.String(),
		o.Element.String(),
		strconv.Itoa(o.Before),
		strconv.Itoa(o.After),
		strconv.Itoa(o.Maximum),
		h.engine.Fingerprint(),
	)
}

func (h *Handler) acquire(ctx context.Context) (func(), error) {
	if h.sem == nil {
		return func() {}, nil
	}
	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }, nil
	case <-ctx.Done():
		return nil, apperrors.New(apperrors.ErrTimeout, http.StatusServiceUnavailable, "too many concurrent searches")
	}
}

func (h *Handler) evaluate(ctx context.Context, req *request) ([]byte, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := h.engine.SearchWith(ctx, req.query, req.search)
	if err != nil {
		return nil, err
	}
	resp := SearchResponse{
		Query:      req.query,
		Tree:       res.Tree.String(),
		Terms:      res.Tree.Terms(),
		Candidates: res.Candidates,
		LatencyMs:  res.Latency.Milliseconds(),
		Report:     output.BuildReport(h.engine.Corpus(), res.Matches, req.output),
	}
	return json.Marshal(resp)
}

// Search serves GET /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "search", logger.RequestID(r.Context()))
	log := logger.FromContext(ctx)

	req, err := h.parseRequest(r)
	if err != nil {
		span.End()
		h.writeError(w, err)
		return
	}
	span.SetAttr("query", req.query)

	var body []byte
	cached := false
	if h.cache != nil {
		body, cached, err = h.cache.GetOrCompute(ctx, h.cacheKey(req), func(ctx context.Context) ([]byte, error) {
			return h.evaluate(ctx, req)
		})
	} else {
		body, err = h.evaluate(ctx, req)
	}
	span.End()
	if h.cfg.Trace {
		span.Log(log)
	}

	var resp SearchResponse
	if err == nil {
		if err = json.Unmarshal(body, &resp); err != nil {
			err = apperrors.Newf(apperrors.ErrInternal, http.StatusInternalServerError, "decoding cached response: %v", err)
		}
	}
	h.track(ctx, req.query, &resp, cached, time.Since(start), err)
	if err != nil {
		log.Warn("search failed", "query", req.query, "error", err)
		h.writeError(w, err)
		return
	}
	resp.Cached = cached

	log.Info("search completed",
		"query", req.query,
		"matches", resp.Total,
		"cache_hit", cached,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, &resp)
}

func (h *Handler) track(ctx context.Context, query string, resp *SearchResponse, cached bool, latency time.Duration, err error) {
	if h.collector == nil {
		return
	}
	ev := analytics.QueryEvent{
		Query:     query,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cached,
		RequestID: logger.RequestID(ctx),
	}
	switch {
	case errors.Is(err, apperrors.ErrInvalidQuery):
		ev.Outcome = analytics.OutcomeInvalid
		ev.Error = err.Error()
	case err != nil:
		ev.Outcome = analytics.OutcomeError
		ev.Error = err.Error()
	default:
		ev.Tree = resp.Tree
		ev.Terms = resp.Terms
		ev.Matches = resp.Total
		ev.Documents = len(resp.Documents)
		ev.Candidates = resp.Candidates
		ev.Outcome = analytics.OutcomeMatched
		if resp.Total == 0 {
			ev.Outcome = analytics.OutcomeEmpty
		}
	}
	h.collector.Track(ev)
}

// Tree serves GET /api/v1/tree: the parsed syntax tree without evaluation.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	root, err := h.engine.Tree(r.Context(), req.query, req.search.Parser)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query": req.query,
		"tree":  root.String(),
		"terms": root.Terms(),
	})
}

// TokenView is one lexed token.
type TokenView struct {
	Seq    int    `json:"seq"`
	Type   string `json:"type"`
	Label  string `json:"label"`
	Text   string `json:"text"`
	Reason string `json:"reason,omitempty"`
}

// Tokens serves GET /api/v1/tokens: the lexer output, errors included.
func (h *Handler) Tokens(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	tokens := parser.Lex(req.query, req.search.Parser)
	views := make([]TokenView, len(tokens))
	for i, t := range tokens {
		views[i] = TokenView{Seq: t.Seq, Type: t.Type.String(), Label: t.Label(), Text: t.Text, Reason: t.Reason}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"query":  req.query,
		"tokens": views,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, apperrors.New(apperrors.ErrSourceUnavailable, http.StatusServiceUnavailable, "caching is disabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

type errorBody struct {
	Error  string               `json:"error"`
	Syntax []*parser.SyntaxError `json:"syntax,omitempty"`
}

// writeError maps err to a status with apperrors.HTTPStatusCode. Syntax
// errors are listed one by one.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	body := errorBody{Error: err.Error()}
	var list parser.ErrorList
	if errors.As(err, &list) {
		body.Syntax = list
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, body)
}
