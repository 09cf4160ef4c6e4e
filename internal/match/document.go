package match

// DocumentNode is one distinct document referenced by a match list, with
// the number of matches that fall inside it.
type DocumentNode struct {
	Field   int
	Matches int
}

// Documents returns the distinct documents of l in order of first
// appearance.
func (l List) Documents() []DocumentNode {
	index := make(map[int]int)
	docs := make([]DocumentNode, 0)
	for _, m := range l {
		if i, ok := index[m.Field]; ok {
			docs[i].Matches++
			continue
		}
		index[m.Field] = len(docs)
		docs = append(docs, DocumentNode{Field: m.Field, Matches: 1})
	}
	return docs
}

// Membership records, per document, which operands of a binary operator
// contain it.
type Membership uint8

const (
	InLeft Membership = 1 << iota
	InRight
)

// Memberships computes the Membership of every document found in left or
// right.
func Memberships(left, right List) map[int]Membership {
	set := make(map[int]Membership)
	for _, m := range left {
		set[m.Field] |= InLeft
	}
	for _, m := range right {
		set[m.Field] |= InRight
	}
	return set
}
