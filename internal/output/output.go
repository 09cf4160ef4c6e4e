// Package output renders match lists for people and programs: one context
// line per match, the list of matching documents, merged excerpts per
// document, or a JSON report.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

type Format int

const (
	FormatMatches Format = iota
	FormatDocuments
	FormatExcerpts
	FormatJSON
)

var formatNames = map[Format]string{
	FormatMatches:   "matches",
	FormatDocuments: "documents",
	FormatExcerpts:  "excerpts",
	FormatJSON:      "json",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatMatches, fmt.Errorf("%w: unknown output format %q", apperrors.ErrInvalidConfig, name)
}

// Options control what is printed around each match.
type Options struct {
	Format  Format
	Element words.Element
	// Before and After count element units of context. One unit means the
	// unit holding the match itself.
	Before     int
	After      int
	Filename   bool
	LineNumber bool
	PageNumber bool
	// Maximum caps the number of matches or documents printed. Zero means
	// no cap.
	Maximum int
}

func DefaultOptions() Options {
	return Options{
		Format:     FormatMatches,
		Element:    words.ElementLine,
		Before:     1,
		After:      1,
		Filename:   true,
		LineNumber: true,
	}
}

func OptionsFromConfig(cfg config.OutputConfig) (Options, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return Options{}, err
	}
	el, err := words.ParseElement(cfg.Element)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidConfig, err)
	}
	return Options{
		Format:     format,
		Element:    el,
		Before:     cfg.Before,
		After:      cfg.After,
		Filename:   cfg.Filename,
		LineNumber: cfg.LineNumber,
		PageNumber: cfg.PageNumber,
		Maximum:    cfg.Maximum,
	}, nil
}

func (o Options) limit(n int) int {
	if o.Maximum > 0 && o.Maximum < n {
		return o.Maximum
	}
	return n
}

// Window returns the offsets [lo, hi) of doc printed around m. The window
// always covers the match itself.
func (o Options) Window(doc *words.Document, m *match.Match) (int, int) {
	start, end := m.Start().Offset, m.End().Offset
	n := -o.Before
	if o.Element == words.ElementWord {
		n++
	}
	lo := doc.Advance(start, o.Element, n)
	hi := doc.Advance(end, o.Element, o.After)
	if lo > start {
		lo = start
	}
	if hi <= end {
		hi = end + 1
	}
	return lo, hi
}

func (o Options) prefix(w *words.Word) string {
	var b strings.Builder
	if o.Filename {
		b.WriteString(w.Filename)
		b.WriteByte(':')
	}
	if o.PageNumber {
		b.WriteString(strconv.Itoa(w.Page))
		b.WriteByte(':')
	}
	if o.LineNumber {
		b.WriteString(strconv.Itoa(w.Line))
		b.WriteByte(':')
	}
	return b.String()
}

func joinOriginals(doc *words.Document, lo, hi int, mark map[int]struct{}) string {
	var b strings.Builder
	for i := lo; i < hi && i < doc.End(); i++ {
		w := doc.Words[i]
		if i > lo {
			b.WriteByte(' ')
		}
		if _, ok := mark[w.Position]; ok {
			b.WriteByte('[')
			b.WriteString(w.Original)
			b.WriteByte(']')
			continue
		}
		b.WriteString(w.Original)
	}
	return b.String()
}

// Printer writes match lists to w.
type Printer struct {
	w      io.Writer
	corpus *words.Corpus
	opts   Options
}

func NewPrinter(w io.Writer, corpus *words.Corpus, opts Options) *Printer {
	return &Printer{w: w, corpus: corpus, opts: opts}
}

// Print writes ms in the configured format.
func (p *Printer) Print(ms match.List) error {
	switch p.opts.Format {
	case FormatDocuments:
		return p.Documents(ms)
	case FormatExcerpts:
		return p.Excerpts(ms)
	case FormatJSON:
		return p.JSON(ms)
	}
	return p.Matches(ms)
}

// Matches writes one line per match: the prefix of the first printed word
// followed by the context window.
func (p *Printer) Matches(ms match.List) error {
	for _, m := range ms[:p.opts.limit(len(ms))] {
		doc, ok := p.corpus.Document(m.Field)
		if !ok {
			continue
		}
		lo, hi := p.opts.Window(doc, m)
		line := p.opts.prefix(doc.Words[lo]) + joinOriginals(doc, lo, hi, nil)
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return fmt.Errorf("writing match: %w", err)
		}
	}
	return nil
}

// Documents writes the name of every distinct matching document.
func (p *Printer) Documents(ms match.List) error {
	docs := ms.Documents()
	for _, d := range docs[:p.opts.limit(len(docs))] {
		doc, ok := p.corpus.Document(d.Field)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(p.w, doc.Name); err != nil {
			return fmt.Errorf("writing document: %w", err)
		}
	}
	return nil
}

// Excerpts writes, per matching document, its name followed by the merged
// context windows of all its matches with matched words in brackets.
func (p *Printer) Excerpts(ms match.List) error {
	for _, ex := range BuildExcerpts(p.corpus, ms, p.opts) {
		if _, err := fmt.Fprintf(p.w, "%s\n  %s\n", ex.Document, strings.Join(ex.Passages, " ... ")); err != nil {
			return fmt.Errorf("writing excerpt: %w", err)
		}
	}
	return nil
}

// JSON writes the full Report.
func (p *Printer) JSON(ms match.List) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildReport(p.corpus, ms, p.opts)); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Excerpt holds the merged passages of one document.
type Excerpt struct {
	Document string   `json:"document"`
	Matches  int      `json:"matches"`
	Passages []string `json:"passages"`
}

type span struct{ lo, hi int }

// BuildExcerpts groups ms by document in order of first appearance and
// merges overlapping or touching windows.
func BuildExcerpts(corpus *words.Corpus, ms match.List, opts Options) []Excerpt {
	docs := ms.Documents()
	groups := ms.ByField()
	mark := ms.WordSet()
	out := make([]Excerpt, 0, len(docs))
	for _, d := range docs[:opts.limit(len(docs))] {
		doc, ok := corpus.Document(d.Field)
		if !ok {
			continue
		}
		spans := make([]span, 0, len(groups[d.Field]))
		for _, m := range groups[d.Field] {
			lo, hi := opts.Window(doc, m)
			spans = append(spans, span{lo, hi})
		}
		sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
		merged := spans[:1]
		for _, s := range spans[1:] {
			last := &merged[len(merged)-1]
			if s.lo <= last.hi {
				last.hi = max(last.hi, s.hi)
				continue
			}
			merged = append(merged, s)
		}
		ex := Excerpt{Document: doc.Name, Matches: d.Matches}
		for _, s := range merged {
			ex.Passages = append(ex.Passages, joinOriginals(doc, s.lo, s.hi, mark))
		}
		out = append(out, ex)
	}
	return out
}
