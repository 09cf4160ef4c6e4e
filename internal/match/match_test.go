package match

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

func testWords() []*words.Word {
	c := words.NewCorpus(words.ReduceOptions{})
	c.AddDocument("a", []words.Word{{Original: "alpha"}, {Original: "beta"}, {Original: "gamma"}, {Original: "delta"}})
	c.AddDocument("b", []words.Word{{Original: "epsilon"}, {Original: "zeta"}})
	var out []*words.Word
	c.Each(func(w *words.Word) { out = append(out, w) })
	return out
}

func positions(m *Match) []int {
	out := make([]int, len(m.Words))
	for i, w := range m.Words {
		out[i] = w.Position
	}
	return out
}

func TestMatchSpan(t *testing.T) {
	ws := testWords()
	m := New(ws[3], ws[0], ws[2])
	if got := m.Start().Position; got != 0 {
		t.Errorf("Start = %d, want 0", got)
	}
	if got := m.End().Position; got != 3 {
		t.Errorf("End = %d, want 3", got)
	}
	if got := m.Width(); got != 4 {
		t.Errorf("Width = %d, want 4", got)
	}
	if !m.Contains(ws[2]) || m.Contains(ws[1]) {
		t.Error("Contains reported the wrong words")
	}
	if New(ws[5]).Field != 1 {
		t.Error("match field should come from its words")
	}
}

func TestJoinAndClone(t *testing.T) {
	ws := testWords()
	a, b := New(ws[0]), New(ws[2], ws[1])
	j := Join(a, b)
	if diff := cmp.Diff([]int{0, 2, 1}, positions(j)); diff != "" {
		t.Errorf("Join mismatch (-want +got):\n%s", diff)
	}

	l := List{a, b}
	cl := l.Clone()
	cl[1].Words[0] = ws[3]
	if b.Words[0] != ws[2] {
		t.Error("Clone shares words with the original")
	}
	if cl[0] == a {
		t.Error("Clone shares matches with the original")
	}
}

func TestListHelpers(t *testing.T) {
	ws := testWords()
	left := List{New(ws[0]), New(ws[4]), New(ws[1])}
	right := List{New(ws[5])}

	all := Concat(left, nil, right)
	if len(all) != 4 {
		t.Fatalf("Concat len = %d, want 4", len(all))
	}

	wantDocs := []DocumentNode{{Field: 0, Matches: 2}, {Field: 1, Matches: 2}}
	if diff := cmp.Diff(wantDocs, all.Documents()); diff != "" {
		t.Errorf("Documents mismatch (-want +got):\n%s", diff)
	}

	groups := left.ByField()
	if len(groups[0]) != 2 || len(groups[1]) != 1 {
		t.Errorf("ByField sizes = %d/%d, want 2/1", len(groups[0]), len(groups[1]))
	}

	wantSet := map[int]struct{}{0: {}, 1: {}, 4: {}}
	if diff := cmp.Diff(wantSet, left.WordSet()); diff != "" {
		t.Errorf("WordSet mismatch (-want +got):\n%s", diff)
	}

	wantMembers := map[int]Membership{0: InLeft, 1: InLeft | InRight}
	if diff := cmp.Diff(wantMembers, Memberships(left, right)); diff != "" {
		t.Errorf("Memberships mismatch (-want +got):\n%s", diff)
	}
}
