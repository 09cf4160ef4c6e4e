package output

import (
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

type WordView struct {
	Text     string `json:"text"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Page     int    `json:"page"`
	Position int    `json:"position"`
}

type MatchView struct {
	Document string     `json:"document"`
	Page     int        `json:"page"`
	Line     int        `json:"line"`
	Context  string     `json:"context"`
	Words    []WordView `json:"words"`
}

type DocumentView struct {
	Name    string `json:"name"`
	Matches int    `json:"matches"`
}

// Report is the machine-readable form of a result. Matches and Documents
// respect Maximum; Total always counts every match.
type Report struct {
	Total     int            `json:"total"`
	Truncated bool           `json:"truncated"`
	Matches   []MatchView    `json:"matches"`
	Documents []DocumentView `json:"documents"`
	Excerpts  []Excerpt      `json:"excerpts,omitempty"`
}

func wordView(w *words.Word) WordView {
	return WordView{
		Text:     w.Original,
		Line:     w.Line,
		Column:   w.Column,
		Page:     w.Page,
		Position: w.Position,
	}
}

// BuildReport renders ms. Excerpts are included only for FormatExcerpts.
func BuildReport(corpus *words.Corpus, ms match.List, opts Options) Report {
	n := opts.limit(len(ms))
	r := Report{
		Total:     len(ms),
		Truncated: n < len(ms),
		Matches:   make([]MatchView, 0, n),
		Documents: []DocumentView{},
	}
	for _, m := range ms[:n] {
		doc, ok := corpus.Document(m.Field)
		if !ok {
			continue
		}
		lo, hi := opts.Window(doc, m)
		first := doc.Words[lo]
		mv := MatchView{
			Document: doc.Name,
			Page:     first.Page,
			Line:     first.Line,
			Context:  joinOriginals(doc, lo, hi, nil),
			Words:    make([]WordView, len(m.Words)),
		}
		for i, w := range m.Words {
			mv.Words[i] = wordView(w)
		}
		r.Matches = append(r.Matches, mv)
	}
	docs := ms.Documents()
	for _, d := range docs[:opts.limit(len(docs))] {
		if doc, ok := corpus.Document(d.Field); ok {
			r.Documents = append(r.Documents, DocumentView{Name: doc.Name, Matches: d.Matches})
		}
	}
	if opts.Format == FormatExcerpts {
		r.Excerpts = BuildExcerpts(corpus, ms, opts)
	}
	return r
}
