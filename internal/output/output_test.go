package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

const sample = "alpha beta gamma\ndelta epsilon zeta\neta theta"

func newCorpus(t *testing.T, texts map[string]string, order ...string) *words.Corpus {
	t.Helper()
	c := words.NewCorpus(words.ReduceOptions{CaseSensitive: true, Wildcard: '?'})
	for _, name := range order {
		c.AddDocument(name, tokenizer.Tokenize(name, texts[name]))
	}
	return c
}

func at(t *testing.T, c *words.Corpus, field int, offsets ...int) *match.Match {
	t.Helper()
	doc, ok := c.Document(field)
	if !ok {
		t.Fatalf("no document %d", field)
	}
	ws := make([]*words.Word, len(offsets))
	for i, o := range offsets {
		ws[i] = doc.Words[o]
	}
	return match.New(ws...)
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestMatches(t *testing.T) {
	c := newCorpus(t, map[string]string{"f.txt": sample}, "f.txt")
	tests := []struct {
		name   string
		mutate func(*Options)
		match  []int
		want   string
	}{
		{"current line", func(*Options) {}, []int{4}, "f.txt:2:delta epsilon zeta"},
		{"previous line too", func(o *Options) { o.Before = 2 }, []int{4}, "f.txt:1:alpha beta gamma delta epsilon zeta"},
		{"word element is the match", func(o *Options) { o.Element = words.ElementWord }, []int{4}, "f.txt:2:epsilon"},
		{"one word either side", func(o *Options) {
			o.Element = words.ElementWord
			o.Before, o.After = 2, 2
		}, []int{4}, "f.txt:2:delta epsilon zeta"},
		{"last line reaches end", func(*Options) {}, []int{7}, "f.txt:3:eta theta"},
		{"page only", func(o *Options) {
			o.Filename, o.LineNumber, o.PageNumber = false, false, true
		}, []int{4}, "1:delta epsilon zeta"},
		{"zero context keeps match", func(o *Options) {
			o.Element = words.ElementWord
			o.Before, o.After = 0, 0
		}, []int{1, 2}, "f.txt:1:beta gamma"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			var buf bytes.Buffer
			if err := NewPrinter(&buf, c, opts).Matches(match.List{at(t, c, 0, tt.match...)}); err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimRight(buf.String(), "\n"); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestMatchesMaximum(t *testing.T) {
	c := newCorpus(t, map[string]string{"f.txt": sample}, "f.txt")
	opts := DefaultOptions()
	opts.Maximum = 1
	var buf bytes.Buffer
	ms := match.List{at(t, c, 0, 0), at(t, c, 0, 7)}
	if err := NewPrinter(&buf, c, opts).Print(ms); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"f.txt:1:alpha beta gamma"}, lines(buf.String())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDocuments(t *testing.T) {
	c := newCorpus(t, map[string]string{"a.txt": "one two", "b.txt": "three four"}, "a.txt", "b.txt")
	opts := DefaultOptions()
	opts.Format = FormatDocuments
	var buf bytes.Buffer
	ms := match.List{at(t, c, 1, 0), at(t, c, 0, 1), at(t, c, 1, 1)}
	if err := NewPrinter(&buf, c, opts).Print(ms); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b.txt", "a.txt"}, lines(buf.String())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestExcerpts(t *testing.T) {
	c := newCorpus(t, map[string]string{"f.txt": sample}, "f.txt")
	opts := DefaultOptions()
	opts.Format = FormatExcerpts
	opts.Element = words.ElementWord
	var buf bytes.Buffer
	ms := match.List{at(t, c, 0, 5), at(t, c, 0, 0), at(t, c, 0, 1)}
	if err := NewPrinter(&buf, c, opts).Print(ms); err != nil {
		t.Fatal(err)
	}
	want := "f.txt\n  [alpha] [beta] ... [zeta]\n"
	if buf.String() != want {
		t.Errorf("got %q\nwant %q", buf.String(), want)
	}
}

func TestJSONReport(t *testing.T) {
	c := newCorpus(t, map[string]string{"f.txt": sample}, "f.txt")
	opts := DefaultOptions()
	opts.Format = FormatJSON
	opts.Maximum = 1
	var buf bytes.Buffer
	ms := match.List{at(t, c, 0, 3, 4), at(t, c, 0, 7)}
	if err := NewPrinter(&buf, c, opts).Print(ms); err != nil {
		t.Fatal(err)
	}
	var r Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if r.Total != 2 || !r.Truncated || len(r.Matches) != 1 {
		t.Fatalf("report = %+v", r)
	}
	m := r.Matches[0]
	if m.Line != 2 || m.Context != "delta epsilon zeta" || len(m.Words) != 2 || m.Words[1].Text != "epsilon" {
		t.Errorf("match view = %+v", m)
	}
	if diff := cmp.Diff([]DocumentView{{Name: "f.txt", Matches: 2}}, r.Documents); diff != "" {
		t.Errorf("documents (-want +got):\n%s", diff)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Output
	cfg.Format = "excerpts"
	cfg.Element = "sentence"
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Format != FormatExcerpts || opts.Element != words.ElementSentence {
		t.Errorf("opts = %+v", opts)
	}

	cfg.Format = "poster"
	if _, err := OptionsFromConfig(cfg); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}
