package executor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
)

type termJob struct {
	node *parser.Node
	opts index.ExpandOptions
}

// collectTerms finds every term leaf together with the expansion options
// in effect at that leaf once modifier ancestors have been applied.
func (e *Executor) collectTerms(n *parser.Node, opts Options, jobs *[]termJob) {
	if n == nil {
		return
	}
	switch {
	case n.Type == parser.TokWildcard:
		*jobs = append(*jobs, termJob{node: n, opts: e.expandOptions(opts)})
		return
	case n.Type.IsModifier():
		opts = applyModifier(n, opts)
	}
	e.collectTerms(n.Left, opts, jobs)
	e.collectTerms(n.Right, opts, jobs)
}

func applyModifier(n *parser.Node, opts Options) Options {
	switch n.Type {
	case parser.TokCase:
		opts.CaseMode = index.CaseSensitive
	case parser.TokNoCase:
		opts.CaseMode = index.CaseInsensitive
	case parser.TokLower:
		opts.CaseMode = index.CaseLower
	case parser.TokUpper:
		opts.CaseMode = index.CaseUpper
	case parser.TokTitle:
		opts.CaseMode = index.CaseTitle
	case parser.TokFuzzy:
		opts.EditBudget = n.N
	}
	return opts
}

func (e *Executor) expandOptions(opts Options) index.ExpandOptions {
	return index.ExpandOptions{
		CaseMode:      opts.CaseMode,
		EditBudget:    opts.EditBudget,
		Wildcard:      opts.Wildcard,
		Truncation:    opts.Truncation,
		Reduce:        e.corpus.ReduceOptions(),
		MaxCandidates: opts.MaxCandidates,
	}
}

// resolveTerms expands every term of the tree against the trie. The trie is
// read-only, so terms are expanded concurrently; each term still gets its
// own freshly allocated match list.
func (e *Executor) resolveTerms(ctx context.Context, root *parser.Node, opts Options) (map[*parser.Node]*index.Expansion, error) {
	var jobs []termJob
	e.collectTerms(root, opts, &jobs)

	resolved := make(map[*parser.Node]*index.Expansion, len(jobs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 1 {
		g.SetLimit(opts.Workers)
	} else {
		g.SetLimit(1)
	}
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("expanding %q: %w", job.node.Text, err)
			}
			exp, err := e.trie.Expand(job.node.Text, job.opts)
			if err != nil {
				return fmt.Errorf("expanding %q: %w", job.node.Text, err)
			}
			mu.Lock()
			resolved[job.node] = exp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}
