// Package index implements the prefix tree that maps reduced word forms to
// the words carrying them, plus the wildcard, case and edit-distance
// expansion used to resolve query terms.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

type node struct {
	key      rune
	children []*node
	words    []*words.Word
}

// child returns the edge labelled key, or nil.
func (n *node) child(key rune) *node {
	i := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].key >= key
	})
	if i < len(n.children) && n.children[i].key == key {
		return n.children[i]
	}
	return nil
}

// ensureChild returns the edge labelled key, creating it in sorted order.
func (n *node) ensureChild(key rune) (*node, bool) {
	i := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].key >= key
	})
	if i < len(n.children) && n.children[i].key == key {
		return n.children[i], false
	}
	c := &node{key: key}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	return c, true
}

// Trie is built once from a corpus and is read-only afterwards, so any
// number of queries may read it concurrently.
type Trie struct {
	root   *node
	height int
	keys   int
	count  int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{root: &node{}}
}

// Build inserts every word of c.
func Build(c *words.Corpus) *Trie {
	t := New()
	c.Each(t.Insert)
	return t
}

// Insert adds w under its reduced form.
func (t *Trie) Insert(w *words.Word) {
	cur := t.root
	depth := 0
	for _, r := range w.Reduced {
		cur, _ = cur.ensureChild(r)
		depth++
	}
	if len(cur.words) == 0 {
		t.keys++
	}
	cur.words = append(cur.words, w)
	t.count++
	if depth > t.height {
		t.height = depth
	}
}

// Height is the length, in runes, of the longest reduced word.
func (t *Trie) Height() int {
	return t.height
}

// Keys is the number of distinct reduced forms.
func (t *Trie) Keys() int {
	return t.keys
}

// Len is the number of words inserted.
func (t *Trie) Len() int {
	return t.count
}

// Lookup returns one fresh single-word match per word whose reduced form is
// exactly key.
func (t *Trie) Lookup(key string) match.List {
	cur := t.root
	for _, r := range key {
		cur = cur.child(r)
		if cur == nil {
			return nil
		}
	}
	return matchesOf(cur)
}

// Backtrack resolves pattern, where wildcard matches any single character,
// and returns fresh single-word matches for every hit.
func (t *Trie) Backtrack(pattern []rune, wildcard rune) match.List {
	return t.backtrackCase(pattern, wildcard, CaseSensitive)
}

// backtrackCase is Backtrack where each pattern letter also matches the
// variants mode allows at its index.
func (t *Trie) backtrackCase(pattern []rune, wildcard rune, mode CaseMode) match.List {
	var out match.List
	backtrack(t.root, pattern, 0, wildcard, mode, &out)
	return out
}

func backtrack(n *node, pattern []rune, i int, wildcard rune, mode CaseMode, out *match.List) {
	if i == len(pattern) {
		*out = append(*out, matchesOf(n)...)
		return
	}
	if pattern[i] != wildcard {
		for _, v := range variants(mode, pattern[i], i) {
			if c := n.child(v); c != nil {
				backtrack(c, pattern, i+1, wildcard, mode, out)
			}
		}
		return
	}
	for _, c := range n.children {
		backtrack(c, pattern, i+1, wildcard, mode, out)
	}
}

func matchesOf(n *node) match.List {
	if len(n.words) == 0 {
		return nil
	}
	out := make(match.List, len(n.words))
	for i, w := range n.words {
		out[i] = match.New(w)
	}
	return out
}
