package executor

import (
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

// Or concatenates both lists. Duplicates are kept.
func Or(left, right match.List) match.List {
	return match.Concat(left, right)
}

// And keeps the matches of both lists whose document appears in both.
func And(left, right match.List) match.List {
	return filterDocuments(left, right, func(m match.Membership) bool {
		return m == match.InLeft|match.InRight
	}, true)
}

// Not keeps the matches of left whose document does not appear in right.
func Not(left, right match.List) match.List {
	return filterDocuments(left, right, func(m match.Membership) bool {
		return m == match.InLeft
	}, false)
}

// Xor keeps the matches of both lists whose document appears in exactly
// one of them.
func Xor(left, right match.List) match.List {
	return filterDocuments(left, right, func(m match.Membership) bool {
		return m == match.InLeft || m == match.InRight
	}, true)
}

func filterDocuments(left, right match.List, keep func(match.Membership) bool, withRight bool) match.List {
	members := match.Memberships(left, right)
	out := make(match.List, 0, len(left))
	for _, m := range left {
		if keep(members[m.Field]) {
			out = append(out, m)
		}
	}
	if withRight {
		for _, m := range right {
			if keep(members[m.Field]) {
				out = append(out, m)
			}
		}
	}
	return out
}

// Window describes a proximity operator: the element it counts in and how
// many units it reaches.
type Window struct {
	Element words.Element
	N       int
	// Forward windows start after the left match and only extend forward.
	Forward bool
}

func windowFor(t parser.TokenType, n int) Window {
	switch t {
	case parser.TokAdj:
		return Window{Element: words.ElementWord, N: n, Forward: true}
	case parser.TokNear:
		return Window{Element: words.ElementWord, N: n}
	case parser.TokAmong:
		return Window{Element: words.ElementClause, N: n}
	case parser.TokAlong:
		return Window{Element: words.ElementLine, N: n}
	case parser.TokWith:
		return Window{Element: words.ElementSentence, N: n}
	case parser.TokSame:
		return Window{Element: words.ElementParagraph, N: n}
	}
	return Window{Element: words.ElementWord, N: n}
}

// Bounds returns the offsets, inclusive, of the window around a match that
// spans offsets start to end of doc.
func (w Window) Bounds(doc *words.Document, start, end int) (int, int) {
	var lo, hi int
	if w.Forward {
		lo = doc.Advance(end, w.Element, 1)
		hi = doc.Advance(end, w.Element, w.N)
	} else {
		lo = doc.Advance(start, w.Element, -w.N)
		hi = doc.Advance(end, w.Element, w.N)
	}
	// Multi-word elements land on the start of the next unit.
	if w.Element != words.ElementWord && !doc.AtEnd(hi) {
		hi--
	}
	return lo, hi
}

// holds reports whether a match spanning start to end falls in [lo, hi].
// Inclusive windows only need an overlap. Forward windows constrain where
// the match begins, so a phrase may run past hi.
func (w Window) holds(lo, hi, start, end int, inclusive bool) bool {
	switch {
	case inclusive:
		return start <= hi && end >= lo
	case w.Forward:
		return start >= lo && start <= hi
	}
	return start >= lo && end <= hi
}

// Proximity pairs every left match with every right match of the same
// document that falls inside the window around the left match. Each pair
// yields a new match holding the left words followed by the right words.
func Proximity(corpus *words.Corpus, w Window, left, right match.List, inclusive bool) match.List {
	byField := right.ByField()
	var out match.List
	for _, l := range left {
		candidates := byField[l.Field]
		if len(candidates) == 0 {
			continue
		}
		doc, ok := corpus.Document(l.Field)
		if !ok {
			continue
		}
		lo, hi := w.Bounds(doc, l.Start().Offset, l.End().Offset)
		for _, r := range candidates {
			if w.holds(lo, hi, r.Start().Offset, r.End().Offset, inclusive) {
				out = append(out, match.Join(l, r))
			}
		}
	}
	return out
}

// NotProximity keeps the matches of either operand that share no word with
// any match the plain proximity operator would produce.
func NotProximity(corpus *words.Corpus, w Window, left, right match.List, inclusive bool) match.List {
	near := Proximity(corpus, w, left, right, inclusive).WordSet()
	var out match.List
	for _, m := range Or(left, right) {
		if !sharesWord(m, near) {
			out = append(out, m)
		}
	}
	return out
}

func sharesWord(m *match.Match, set map[int]struct{}) bool {
	for _, w := range m.Words {
		if _, ok := set[w.Position]; ok {
			return true
		}
	}
	return false
}
