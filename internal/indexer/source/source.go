// Package source reads documents for the corpus. Every source yields one or
// more documents of positioned words; sources are read concurrently but
// their documents are always assembled in the order the sources were given.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// Document is one field's worth of words, not yet part of a corpus.
type Document struct {
	Name  string
	Words []words.Word
}

type Source interface {
	Name() string
	Load(ctx context.Context) ([]Document, error)
}

// File reads a single file as one document.
type File struct {
	Path string
}

func (f File) Name() string { return f.Path }

func (f File) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", apperrors.ErrSourceUnavailable, f.Path, err)
	}
	defer fh.Close()
	ws, err := tokenizer.Read(fh, f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	return []Document{{Name: f.Path, Words: ws}}, nil
}

// Files returns one File source per path.
func Files(paths ...string) []Source {
	out := make([]Source, len(paths))
	for i, p := range paths {
		out[i] = File{Path: p}
	}
	return out
}

// Reader reads a stream, typically standard input, as one document.
type Reader struct {
	Label string
	R     io.Reader
}

func (r Reader) Name() string { return r.Label }

func (r Reader) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ws, err := tokenizer.Read(r.R, r.Label)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrSourceUnavailable, err)
	}
	return []Document{{Name: r.Label, Words: ws}}, nil
}

// Text is an in-memory document.
type Text struct {
	Label string
	Body  string
}

func (t Text) Name() string { return t.Label }

func (t Text) Load(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Document{{Name: t.Label, Words: tokenizer.Tokenize(t.Label, t.Body)}}, nil
}

// LoadAll reads every source with at most workers sources in flight. The
// first failure cancels the rest.
func LoadAll(ctx context.Context, sources []Source, workers int) ([]Document, error) {
	start := time.Now()
	results := make([][]Document, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			docs, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("loading %s: %w", src.Name(), err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Document
	nwords := 0
	for _, docs := range results {
		for _, d := range docs {
			nwords += len(d.Words)
		}
		out = append(out, docs...)
	}
	slog.Default().With("component", "source-loader").Info("sources loaded",
		"sources", len(sources),
		"documents", len(out),
		"words", nwords,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
