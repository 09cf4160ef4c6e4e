// Package match represents the ways a query (sub)expression was satisfied:
// a Match is an ordered set of words from one document and a List is every
// alternative found.
package match

import (
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

// Match is one concrete assignment of words to a (sub)expression. All words
// belong to the document identified by Field.
type Match struct {
	Words []*words.Word
	Field int
}

// New creates a match from ws. ws must be non-empty and share one field.
func New(ws ...*words.Word) *Match {
	m := &Match{Words: make([]*words.Word, len(ws))}
	copy(m.Words, ws)
	if len(ws) > 0 {
		m.Field = ws[0].Field
	}
	return m
}

// Join returns a new match holding a's words followed by b's.
func Join(a, b *Match) *Match {
	m := &Match{
		Words: make([]*words.Word, 0, len(a.Words)+len(b.Words)),
		Field: a.Field,
	}
	m.Words = append(m.Words, a.Words...)
	m.Words = append(m.Words, b.Words...)
	return m
}

// Clone returns an independent copy of m.
func (m *Match) Clone() *Match {
	return New(m.Words...)
}

// Start returns the word with the lowest position.
func (m *Match) Start() *words.Word {
	start := m.Words[0]
	for _, w := range m.Words[1:] {
		if w.Position < start.Position {
			start = w
		}
	}
	return start
}

// End returns the word with the highest position.
func (m *Match) End() *words.Word {
	end := m.Words[0]
	for _, w := range m.Words[1:] {
		if w.Position > end.Position {
			end = w
		}
	}
	return end
}

// Width is the number of words spanned by m, including words that were not
// matched themselves.
func (m *Match) Width() int {
	return m.End().Position - m.Start().Position + 1
}

// Contains reports whether w is one of m's words.
func (m *Match) Contains(w *words.Word) bool {
	for _, x := range m.Words {
		if x == w {
			return true
		}
	}
	return false
}

// List is the set of alternative matches of an expression. Duplicates are
// allowed.
type List []*Match

// Concat returns a new list with the matches of every list in order.
func Concat(lists ...List) List {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make(List, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Clone deep-copies the list so the result shares no Match with l.
func (l List) Clone() List {
	out := make(List, len(l))
	for i, m := range l {
		out[i] = m.Clone()
	}
	return out
}

// ByField groups matches by document, preserving order within each group.
func (l List) ByField() map[int]List {
	groups := make(map[int]List)
	for _, m := range l {
		groups[m.Field] = append(groups[m.Field], m)
	}
	return groups
}

// WordSet returns the global positions of every word used by the list.
func (l List) WordSet() map[int]struct{} {
	set := make(map[int]struct{})
	for _, m := range l {
		for _, w := range m.Words {
			set[w.Position] = struct{}{}
		}
	}
	return set
}
