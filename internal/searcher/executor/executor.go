// Package executor evaluates query syntax trees against a corpus and its
// trie index, producing match lists.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// Options are the evaluation defaults. Modifier nodes override CaseMode and
// EditBudget for their subtree.
type Options struct {
	CaseMode   index.CaseMode
	EditBudget int
	// Inclusive selects overlap instead of containment for proximity windows.
	Inclusive     bool
	Wildcard      rune
	Truncation    string
	MaxCandidates int
	// Workers bounds concurrent term expansion. Values below 2 expand terms
	// one at a time.
	Workers int
}

// DefaultOptions returns the evaluation defaults.
func DefaultOptions() Options {
	return Options{
		CaseMode:      index.CaseInsensitive,
		Wildcard:      '?',
		Truncation:    "$#",
		MaxCandidates: 100000,
		Workers:       4,
	}
}

// Error reports a node that cannot be evaluated. The whole query fails.
type Error struct {
	Node   *parser.Node
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot evaluate %q (token %d): %s", e.Node.Text, e.Node.Seq, e.Reason)
}

func (e *Error) Unwrap() error {
	return apperrors.ErrEvaluation
}

// Result is the outcome of evaluating one query.
type Result struct {
	Matches    match.List
	Terms      int
	Candidates int
	Latency    time.Duration
}

type Executor struct {
	corpus *words.Corpus
	trie   *index.Trie
	opts   Options
	logger *slog.Logger
}

func New(corpus *words.Corpus, trie *index.Trie, opts Options) *Executor {
	return &Executor{
		corpus: corpus,
		trie:   trie,
		opts:   opts,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Options returns the defaults the executor was created with.
func (e *Executor) Options() Options {
	return e.opts
}

// Execute evaluates root with the executor defaults.
func (e *Executor) Execute(ctx context.Context, root *parser.Node) (*Result, error) {
	return e.ExecuteWith(ctx, root, e.opts)
}

// ExecuteWith evaluates root with opts in place of the executor defaults.
func (e *Executor) ExecuteWith(ctx context.Context, root *parser.Node, opts Options) (*Result, error) {
	start := time.Now()
	if root == nil {
		return nil, fmt.Errorf("%w: empty syntax tree", apperrors.ErrEvaluation)
	}
	if err := checkTree(root); err != nil {
		return nil, err
	}
	terms, err := e.resolveTerms(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	ev := &evaluation{exec: e, opts: opts, terms: terms}
	matches, err := ev.eval(ctx, root)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Matches: matches,
		Terms:   len(terms),
		Latency: time.Since(start),
	}
	for _, t := range terms {
		res.Candidates += t.Candidates
	}
	e.logger.Debug("query evaluated",
		"tree", root.String(),
		"matches", len(matches),
		"terms", res.Terms,
		"candidates", res.Candidates,
		"latency_ms", res.Latency.Milliseconds(),
	)
	return res, nil
}

// checkTree rejects trees holding error nodes or unknown operators before
// any work is done.
func checkTree(root *parser.Node) error {
	var bad *Error
	root.Walk(func(n *parser.Node) {
		if bad != nil {
			return
		}
		switch {
		case n.Type == parser.TokError:
			bad = &Error{Node: n, Reason: "syntax error in query"}
		case n.Type == parser.TokWildcard, n.Type.IsModifier():
		case n.Type.IsBinary():
			if n.Left == nil || n.Right == nil {
				bad = &Error{Node: n, Reason: "operator is missing an operand"}
			}
		default:
			bad = &Error{Node: n, Reason: fmt.Sprintf("unsupported node type %s", n.Type)}
		}
	})
	if bad != nil {
		return bad
	}
	return nil
}

type evaluation struct {
	exec  *Executor
	opts  Options
	terms map[*parser.Node]*index.Expansion
}

func (ev *evaluation) eval(ctx context.Context, n *parser.Node) (match.List, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluating query: %w", err)
	}
	switch {
	case n.Type == parser.TokWildcard:
		exp, ok := ev.terms[n]
		if !ok {
			return nil, &Error{Node: n, Reason: "term was not resolved"}
		}
		return exp.Matches, nil
	case n.Type.IsModifier():
		if n.Left == nil {
			return nil, &Error{Node: n, Reason: "modifier is missing its operand"}
		}
		return ev.eval(ctx, n.Left)
	case !n.Type.IsBinary():
		return nil, &Error{Node: n, Reason: fmt.Sprintf("unsupported node type %s", n.Type)}
	}

	left, err := ev.eval(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	switch {
	case n.Type == parser.TokOr:
		return Or(left, right), nil
	case n.Type == parser.TokAnd:
		return And(left, right), nil
	case n.Type == parser.TokNot:
		return Not(left, right), nil
	case n.Type == parser.TokXor:
		return Xor(left, right), nil
	case n.Type.IsProximity():
		return Proximity(ev.exec.corpus, windowFor(n.Type, n.N), left, right, ev.opts.Inclusive), nil
	case n.Type.IsNotProximity():
		return NotProximity(ev.exec.corpus, windowFor(n.Type.Positive(), n.N), left, right, ev.opts.Inclusive), nil
	}
	return nil, &Error{Node: n, Reason: fmt.Sprintf("unsupported operator %s", n.Type)}
}
