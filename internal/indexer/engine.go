// Package indexer builds the searchable state, a corpus of positioned words
// plus its trie index, and answers queries against it.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/tracing"
)

// SearchOptions are the knobs a single query may change.
type SearchOptions struct {
	Parser   parser.Options
	Executor executor.Options
}

// Options configure an Engine.
type Options struct {
	Search SearchOptions
	// CaseSensitive keeps letter case in the indexed keys.
	CaseSensitive bool
	// Timeout bounds one query evaluation. Zero means no limit.
	Timeout time.Duration
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return Options{
		Search: SearchOptions{
			Parser:   parser.DefaultOptions(),
			Executor: executor.DefaultOptions(),
		},
		CaseSensitive: true,
	}
}

// OptionsFromConfig translates the query, index and search sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	q := cfg.Query
	op, err := parser.ParseOperator(q.DefaultOperator)
	if err != nil {
		return Options{}, err
	}
	mode, err := index.ParseCaseMode(q.CaseMode)
	if err != nil {
		return Options{}, err
	}
	wildcard := q.WildcardRune()
	return Options{
		Search: SearchOptions{
			Parser: parser.Options{
				DefaultOperator: op,
				QuoteChars:      q.QuoteChars,
				Wildcard:        wildcard,
				Truncation:      q.Truncation,
			},
			Executor: executor.Options{
				CaseMode:      mode,
				EditBudget:    q.EditBudget,
				Inclusive:     q.Inclusive(),
				Wildcard:      wildcard,
				Truncation:    q.Truncation,
				MaxCandidates: q.MaxExpansions,
				Workers:       q.Workers,
			},
		},
		CaseSensitive: cfg.Index.CaseSensitive,
		Timeout:       cfg.Search.Timeout,
	}, nil
}

// Result is the outcome of one search.
type Result struct {
	Query      string
	Tree       *parser.Node
	Matches    match.List
	Terms      int
	Candidates int
	Latency    time.Duration
}

// Stats summarizes what was loaded.
type Stats struct {
	Documents   int    `json:"documents"`
	Words       int    `json:"words"`
	Keys        int    `json:"keys"`
	Height      int    `json:"height"`
	Fingerprint string `json:"fingerprint"`
}

// Engine is immutable once built and safe for concurrent searches.
type Engine struct {
	corpus      *words.Corpus
	trie        *index.Trie
	exec        *executor.Executor
	opts        Options
	fingerprint string
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewEngine builds the corpus and trie from docs in the given order.
func NewEngine(docs []source.Document, opts Options) *Engine {
	start := time.Now()
	corpus := words.NewCorpus(words.ReduceOptions{
		CaseSensitive: opts.CaseSensitive,
		Wildcard:      opts.Search.Parser.Wildcard,
	})
	h := sha256.New()
	for _, d := range docs {
		corpus.AddDocument(d.Name, d.Words)
		fmt.Fprintf(h, "%s\x00%d\x00", d.Name, len(d.Words))
		for _, w := range d.Words {
			h.Write([]byte(w.Original))
			h.Write([]byte{0})
		}
	}
	trie := index.Build(corpus)
	e := &Engine{
		corpus:      corpus,
		trie:        trie,
		exec:        executor.New(corpus, trie, opts.Search.Executor),
		opts:        opts,
		fingerprint: hex.EncodeToString(h.Sum(nil))[:16],
		logger:      slog.Default().With("component", "engine"),
	}
	e.logger.Info("index built",
		"documents", len(docs),
		"words", corpus.Len(),
		"keys", trie.Keys(),
		"height", trie.Height(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return e
}

// Load reads every source and builds an engine from the result.
func Load(ctx context.Context, sources []source.Source, workers int, opts Options) (*Engine, error) {
	docs, err := source.LoadAll(ctx, sources, workers)
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	return NewEngine(docs, opts), nil
}

// WithMetrics makes the engine record query metrics in m and publishes the
// corpus gauges.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	if m != nil {
		s := e.Stats()
		m.CorpusDocuments.Set(float64(s.Documents))
		m.CorpusWords.Set(float64(s.Words))
		m.IndexKeys.Set(float64(s.Keys))
	}
	return e
}

func (e *Engine) Corpus() *words.Corpus { return e.corpus }

func (e *Engine) Options() Options { return e.opts }

// Fingerprint identifies the loaded text; it changes whenever any document
// name or word changes.
func (e *Engine) Fingerprint() string { return e.fingerprint }

func (e *Engine) Stats() Stats {
	return Stats{
		Documents:   len(e.corpus.Documents()),
		Words:       e.corpus.Len(),
		Keys:        e.trie.Keys(),
		Height:      e.trie.Height(),
		Fingerprint: e.fingerprint,
	}
}

// Tokens lexes query with the engine's parser defaults.
func (e *Engine) Tokens(query string) []parser.Token {
	return parser.Lex(query, e.opts.Search.Parser)
}

// Tree validates and parses query. Syntax errors come back as a
// parser.ErrorList.
func (e *Engine) Tree(ctx context.Context, query string, opts parser.Options) (*parser.Node, error) {
	_, span := tracing.StartChildSpan(ctx, "lex")
	tokens := parser.Lex(query, opts)
	span.SetAttr("tokens", len(tokens))
	span.End()

	_, span = tracing.StartChildSpan(ctx, "validate")
	err := parser.Validate(tokens)
	span.End()
	if err != nil {
		return nil, err
	}

	_, span = tracing.StartChildSpan(ctx, "parse")
	defer span.End()
	root, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}
	span.SetAttr("tree", root.String())
	return root, nil
}

// Search runs query with the engine defaults.
func (e *Engine) Search(ctx context.Context, query string) (*Result, error) {
	return e.SearchWith(ctx, query, e.opts.Search)
}

// SearchWith runs query with per-query options.
func (e *Engine) SearchWith(ctx context.Context, query string, opts SearchOptions) (*Result, error) {
	start := time.Now()
	res, err := e.search(ctx, query, opts)
	e.observe(res, err)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	res.Latency = time.Since(start)
	if e.metrics != nil {
		e.metrics.QueryLatency.WithLabelValues("evaluated").Observe(res.Latency.Seconds())
	}
	e.logger.Debug("search completed",
		"query", query,
		"matches", len(res.Matches),
		"latency_ms", res.Latency.Milliseconds(),
	)
	return res, nil
}

func (e *Engine) search(ctx context.Context, query string, opts SearchOptions) (*Result, error) {
	root, err := e.Tree(ctx, query, opts.Parser)
	if err != nil {
		return nil, err
	}

	evalCtx, span := tracing.StartChildSpan(ctx, "evaluate")
	defer span.End()
	out, err := resilience.WithTimeout(evalCtx, e.opts.Timeout, "query evaluation",
		func(ctx context.Context) (*executor.Result, error) {
			return e.exec.ExecuteWith(ctx, root, opts.Executor)
		})
	if err != nil {
		return nil, err
	}
	span.SetAttr("matches", len(out.Matches))
	span.SetAttr("candidates", out.Candidates)
	return &Result{
		Query:      query,
		Tree:       root,
		Matches:    out.Matches,
		Terms:      out.Terms,
		Candidates: out.Candidates,
	}, nil
}

func (e *Engine) observe(res *Result, err error) {
	if e.metrics == nil {
		return
	}
	result := metrics.ResultMatched
	switch {
	case errors.Is(err, apperrors.ErrInvalidQuery):
		result = metrics.ResultInvalid
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultTimeout
	case err != nil:
		result = metrics.ResultError
	case len(res.Matches) == 0:
		result = metrics.ResultEmpty
	}
	e.metrics.QueriesTotal.WithLabelValues(result).Inc()
	if err == nil {
		e.metrics.QueryMatches.Observe(float64(len(res.Matches)))
		e.metrics.TermCandidates.Observe(float64(res.Candidates))
	}
}
