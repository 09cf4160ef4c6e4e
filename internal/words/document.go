package words

import (
	"fmt"
	"strings"
)

// Element is a navigation granularity used for proximity windows and for
// output context.
type Element int

const (
	ElementWord Element = iota
	ElementClause
	ElementLine
	ElementSentence
	ElementParagraph
	ElementPage
)

var elementNames = map[Element]string{
	ElementWord:      "word",
	ElementClause:    "clause",
	ElementLine:      "line",
	ElementSentence:  "sentence",
	ElementParagraph: "paragraph",
	ElementPage:      "page",
}

func (e Element) String() string {
	if name, ok := elementNames[e]; ok {
		return name
	}
	return fmt.Sprintf("element(%d)", int(e))
}

// ParseElement converts a name such as "sentence" to an Element.
func ParseElement(name string) (Element, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for e, n := range elementNames {
		if n == name {
			return e, nil
		}
	}
	return ElementWord, fmt.Errorf("unknown language element %q", name)
}

// Document is one field: a contiguous run of words from a single source.
// Offsets run from 0 to End(); End() itself is the end-of-field sentinel and
// never refers to a word.
type Document struct {
	Field int
	Name  string
	Words []*Word
}

// End returns the end-of-field offset.
func (d *Document) End() int {
	return len(d.Words)
}

// AtEnd reports whether offset i is the end-of-field sentinel.
func (d *Document) AtEnd(i int) bool {
	return i >= len(d.Words)
}

// Word returns the word at offset i, or false at the end of the field.
func (d *Document) Word(i int) (*Word, bool) {
	if i < 0 || i >= len(d.Words) {
		return nil, false
	}
	return d.Words[i], true
}

// Next returns the offset after i, stopping at the end-of-field sentinel.
func (d *Document) Next(i int) int {
	if i >= len(d.Words) {
		return len(d.Words)
	}
	return i + 1
}

// Prev returns the offset before i, or false at the first word.
func (d *Document) Prev(i int) (int, bool) {
	if i <= 0 {
		return 0, false
	}
	if i > len(d.Words) {
		return len(d.Words), true
	}
	return i - 1, true
}

// SentenceEnd reports whether the word at i ends a sentence: it ends with
// . ? or ! (a trailing quote is allowed) and the next word starts with an
// uppercase letter or digit (a leading quote is allowed). The sentinel ends
// a sentence, and this package also treats the last word of a field as a
// sentence end whatever its punctuation. Navigation lands on the sentinel
// either way.
func (d *Document) SentenceEnd(i int) bool {
	if d.AtEnd(i) || d.AtEnd(i+1) {
		return true
	}
	return endsSentence(d.Words[i].Original) && startsSentence(d.Words[i+1].Original)
}

// ClauseEnd reports whether the word at i ends a clause: a sentence end, or
// a word ending with , ; or : (a trailing quote is allowed).
func (d *Document) ClauseEnd(i int) bool {
	if d.SentenceEnd(i) {
		return true
	}
	return endsClause(d.Words[i].Original)
}

// ParagraphEnd reports whether the word at i ends a sentence and the next
// word sits on a different source line.
func (d *Document) ParagraphEnd(i int) bool {
	if !d.SentenceEnd(i) {
		return false
	}
	if d.AtEnd(i) || d.AtEnd(i+1) {
		return true
	}
	return d.Words[i].Line != d.Words[i+1].Line
}

// nextUntil advances while pred is false and stops one past the first word
// for which it holds.
func (d *Document) nextUntil(i int, pred func(int) bool) int {
	cur := i
	for !pred(cur) {
		cur = d.Next(cur)
	}
	return d.Next(cur)
}

// startUntil walks back to the first word after the previous word for which
// pred holds, i.e. the start of the unit containing i.
func (d *Document) startUntil(i int, pred func(int) bool) int {
	cur := i
	for {
		p, ok := d.Prev(cur)
		if !ok || pred(p) {
			return cur
		}
		cur = p
	}
}

// nextWhileSame advances while attr is unchanged and returns the first
// offset where it differs, or the end of the field.
func (d *Document) nextWhileSame(i int, attr func(*Word) int) int {
	if d.AtEnd(i) {
		return d.End()
	}
	v := attr(d.Words[i])
	cur := i
	for !d.AtEnd(cur) && attr(d.Words[cur]) == v {
		cur++
	}
	return cur
}

// startWhileSame walks back to the first offset sharing attr with i.
func (d *Document) startWhileSame(i int, attr func(*Word) int) int {
	if d.AtEnd(i) {
		p, ok := d.Prev(i)
		if !ok {
			return i
		}
		i = p
	}
	v := attr(d.Words[i])
	cur := i
	for cur > 0 && attr(d.Words[cur-1]) == v {
		cur--
	}
	return cur
}

func wordLine(w *Word) int { return w.Line }
func wordPage(w *Word) int { return w.Page }

// NextStart returns the start of the element unit following the one that
// contains i, or the end-of-field sentinel.
func (d *Document) NextStart(i int, el Element) int {
	switch el {
	case ElementWord:
		return d.Next(i)
	case ElementClause:
		return d.nextUntil(i, d.ClauseEnd)
	case ElementSentence:
		return d.nextUntil(i, d.SentenceEnd)
	case ElementParagraph:
		return d.nextUntil(i, d.ParagraphEnd)
	case ElementLine:
		return d.nextWhileSame(i, wordLine)
	case ElementPage:
		return d.nextWhileSame(i, wordPage)
	}
	return d.End()
}

// UnitStart returns the first offset of the element unit containing i.
func (d *Document) UnitStart(i int, el Element) int {
	switch el {
	case ElementClause:
		return d.startUntil(i, d.ClauseEnd)
	case ElementSentence:
		return d.startUntil(i, d.SentenceEnd)
	case ElementParagraph:
		return d.startUntil(i, d.ParagraphEnd)
	case ElementLine:
		return d.startWhileSame(i, wordLine)
	case ElementPage:
		return d.startWhileSame(i, wordPage)
	}
	return i
}

// Advance moves n units of el from i. Moving forward lands on the start of
// the n-th following unit or on the end-of-field sentinel. Moving backward
// first goes to the start of the current unit, then one unit further back
// per step, and stops at the first word of the field.
func (d *Document) Advance(i int, el Element, n int) int {
	cur := i
	switch {
	case n > 0:
		for step := 0; step < n && !d.AtEnd(cur); step++ {
			cur = d.NextStart(cur, el)
		}
	case n < 0:
		for step := 0; step < -n; step++ {
			if el == ElementWord {
				p, ok := d.Prev(cur)
				if !ok {
					break
				}
				cur = p
				continue
			}
			if step > 0 {
				p, ok := d.Prev(cur)
				if !ok {
					break
				}
				cur = p
			}
			cur = d.UnitStart(cur, el)
		}
	}
	return cur
}

// Corpus owns every document and word loaded for searching.
type Corpus struct {
	docs  []*Document
	words []*Word
	opts  ReduceOptions
}

// NewCorpus creates an empty corpus whose words are reduced with opts.
func NewCorpus(opts ReduceOptions) *Corpus {
	return &Corpus{opts: opts}
}

// ReduceOptions returns the normalization settings used for source words.
func (c *Corpus) ReduceOptions() ReduceOptions {
	return c.opts
}

// AddDocument appends a new field built from ws. Reduced text, positions,
// field and offsets are assigned here; other attributes are kept as given.
func (c *Corpus) AddDocument(name string, ws []Word) *Document {
	doc := &Document{
		Field: len(c.docs),
		Name:  name,
		Words: make([]*Word, 0, len(ws)),
	}
	for i := range ws {
		w := ws[i]
		w.Reduced = Reduce(w.Original, OriginSource, c.opts)
		w.Position = len(c.words)
		w.Field = doc.Field
		w.Offset = len(doc.Words)
		if w.Filename == "" {
			w.Filename = name
		}
		if w.Page == 0 {
			w.Page = 1
		}
		ptr := &w
		doc.Words = append(doc.Words, ptr)
		c.words = append(c.words, ptr)
	}
	c.docs = append(c.docs, doc)
	return doc
}

// Document returns the document with the given field index.
func (c *Corpus) Document(field int) (*Document, bool) {
	if field < 0 || field >= len(c.docs) {
		return nil, false
	}
	return c.docs[field], true
}

// Documents returns all documents in load order.
func (c *Corpus) Documents() []*Document {
	return c.docs
}

// Word returns the word at a global position.
func (c *Corpus) Word(position int) (*Word, bool) {
	if position < 0 || position >= len(c.words) {
		return nil, false
	}
	return c.words[position], true
}

// Len returns the number of words in the corpus.
func (c *Corpus) Len() int {
	return len(c.words)
}

// Each calls fn for every word in position order.
func (c *Corpus) Each(fn func(*Word)) {
	for _, w := range c.words {
		fn(w)
	}
}
