package parser

import (
	"fmt"
	"strings"
)

// Node is a syntax tree node. Binary operators use Left and Right, modifiers
// use Left only, and leaves (terms and errors) use neither.
type Node struct {
	Type  TokenType
	N     int
	Text  string
	Seq   int
	Left  *Node
	Right *Node
}

// Label is the operator label, e.g. NEAR5, NOT_WITH1 or FUZZY2.
func (n *Node) Label() string {
	if n.Type.HasNumber() {
		return fmt.Sprintf("%s%d", n.Type, n.N)
	}
	return n.Type.String()
}

// String renders the tree fully parenthesized.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch {
	case n == nil:
		b.WriteString("<nil>")
	case n.Type == TokError:
		b.WriteString("<ERROR ")
		b.WriteString(n.Text)
		b.WriteString(">")
	case n.Type.IsModifier():
		b.WriteString("(")
		b.WriteString(n.Label())
		b.WriteString(" ")
		n.Left.write(b)
		b.WriteString(")")
	case n.Type.IsBinary():
		b.WriteString("(")
		n.Left.write(b)
		b.WriteString(" ")
		b.WriteString(n.Label())
		b.WriteString(" ")
		n.Right.write(b)
		b.WriteString(")")
	default:
		b.WriteString(n.Text)
	}
}

// Walk calls fn for every node in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	n.Left.Walk(fn)
	n.Right.Walk(fn)
}

// Terms returns the text of every term leaf, left to right.
func (n *Node) Terms() []string {
	var out []string
	n.Walk(func(c *Node) {
		if c.Type == TokWildcard {
			out = append(out, c.Text)
		}
	})
	return out
}
