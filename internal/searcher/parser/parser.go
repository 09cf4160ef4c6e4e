// Package parser turns query text into a syntax tree: a lexer with
// default-operator insertion, a structural validator, and a precedence
// climbing recursive-descent parser.
package parser

import "slices"

// levels lists the binary operators from loosest to tightest binding.
var levels = [][]TokenType{
	{TokOr, TokXor},
	{TokAnd},
	{TokNot},
	{TokSame, TokNotSame},
	{TokWith, TokAlong, TokNotWith, TokNotAlong},
	{TokAmong, TokNotAmong},
	{TokNear, TokNotNear},
	{TokAdj, TokNotAdj},
}

type parser struct {
	tokens []Token
	pos    int
	errs   ErrorList
}

// Parse builds a syntax tree from tokens. On failure it still returns a
// best-effort tree, with error nodes where operands could not be parsed,
// alongside an ErrorList.
func Parse(tokens []Token) (*Node, error) {
	if len(tokens) == 0 {
		return nil, ErrorList{{Reason: "empty query"}}
	}
	p := &parser{tokens: tokens}
	root := p.parseLevel(0)
	for p.pos < len(p.tokens) {
		t := p.next()
		if t.Type == TokRParen {
			p.errs.add(t, "unmatched closing parenthesis")
			continue
		}
		p.errs.add(t, "unexpected token")
	}
	if len(p.errs) > 0 {
		return root, p.errs
	}
	return root, nil
}

// ParseQuery lexes, validates and parses query.
func ParseQuery(query string, opts Options) (*Node, error) {
	tokens := Lex(query, opts)
	if err := Validate(tokens); err != nil {
		return nil, err
	}
	return Parse(tokens)
}

func (p *parser) peek() *Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

// lastToken is reported when an operand is missing at the end of input.
func (p *parser) lastToken() Token {
	if len(p.tokens) == 0 {
		return Token{}
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) errorNode(t Token, reason string) *Node {
	p.errs.add(t, reason)
	return &Node{Type: TokError, Text: t.Text, Seq: t.Seq}
}

func leaf(t Token) *Node {
	return &Node{Type: t.Type, N: t.N, Text: t.Text, Seq: t.Seq}
}

func binary(op Token, left, right *Node) *Node {
	n := leaf(op)
	n.Left, n.Right = left, right
	return n
}

func (p *parser) parseLevel(level int) *Node {
	if level == len(levels) {
		return p.parsePhrase()
	}
	left := p.parseLevel(level + 1)
	for {
		t := p.peek()
		if t == nil || !slices.Contains(levels[level], t.Type) {
			return left
		}
		op := p.next()
		right := p.parseLevel(level + 1)
		left = binary(op, left, right)
	}
}

// parsePhrase parses a quoted phrase, whose terms are chained by implicit
// ADJ1 joins unless an explicit ADJ operator separates them.
func (p *parser) parsePhrase() *Node {
	t := p.peek()
	if t == nil || t.Type != TokQuote {
		return p.parseModifier()
	}
	open := p.next()
	var phrase *Node
	join := func(op Token, n *Node) {
		if phrase == nil {
			phrase = n
			return
		}
		phrase = binary(op, phrase, n)
	}
	implicit := Token{Type: TokAdj, N: 1, Text: "ADJ1", Seq: open.Seq}
	for {
		t := p.peek()
		if t == nil {
			p.errs.add(open, "unbalanced quotation")
			break
		}
		if t.Type == TokQuote {
			p.next()
			break
		}
		switch {
		case t.Type == TokWildcard:
			join(implicit, leaf(p.next()))
		case t.Type == TokAdj && phrase != nil:
			op := p.next()
			next := p.peek()
			if next == nil || next.Type != TokWildcard {
				phrase = binary(op, phrase, p.errorNode(op, "operator is missing its right operand"))
				continue
			}
			phrase = binary(op, phrase, leaf(p.next()))
		default:
			bad := p.next()
			join(implicit, p.errorNode(bad, "unexpected token inside quotation"))
		}
	}
	if phrase == nil {
		return p.errorNode(open, "empty quotation")
	}
	return phrase
}

func (p *parser) parseModifier() *Node {
	t := p.peek()
	if t == nil || !t.Type.IsModifier() {
		return p.parseAtom()
	}
	op := p.next()
	n := leaf(op)
	n.Left = p.parsePhrase()
	return n
}

func (p *parser) parseAtom() *Node {
	t := p.peek()
	if t == nil {
		return p.errorNode(p.lastToken(), "missing operand")
	}
	switch t.Type {
	case TokWildcard:
		return leaf(p.next())
	case TokLParen:
		open := p.next()
		n := p.parseLevel(0)
		if c := p.peek(); c != nil && c.Type == TokRParen {
			p.next()
		} else {
			p.errs.add(open, "unmatched opening parenthesis")
		}
		return n
	case TokError:
		bad := p.next()
		reason := bad.Reason
		if reason == "" {
			reason = "unrecognized token"
		}
		return p.errorNode(bad, reason)
	}
	// Operators and closing parentheses stay for the caller to consume.
	return p.errorNode(*t, "missing operand")
}
