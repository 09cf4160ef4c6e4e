package parser

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// TokenType represents the type of lexical token and of syntax tree node.
type TokenType int

const (
	TokError TokenType = iota
	TokWildcard
	TokQuote
	TokLParen
	TokRParen

	TokOr
	TokAnd
	TokNot
	TokXor

	TokAdj
	TokNear
	TokAmong
	TokAlong
	TokWith
	TokSame

	TokNotAdj
	TokNotNear
	TokNotAmong
	TokNotAlong
	TokNotWith
	TokNotSame

	TokCase
	TokNoCase
	TokLower
	TokUpper
	TokTitle
	TokFuzzy
)

var tokenNames = map[TokenType]string{
	TokError:    "ERROR",
	TokWildcard: "WILDCARD",
	TokQuote:    "QUOTE",
	TokLParen:   "(",
	TokRParen:   ")",
	TokOr:       "OR",
	TokAnd:      "AND",
	TokNot:      "NOT",
	TokXor:      "XOR",
	TokAdj:      "ADJ",
	TokNear:     "NEAR",
	TokAmong:    "AMONG",
	TokAlong:    "ALONG",
	TokWith:     "WITH",
	TokSame:     "SAME",
	TokNotAdj:   "NOT_ADJ",
	TokNotNear:  "NOT_NEAR",
	TokNotAmong: "NOT_AMONG",
	TokNotAlong: "NOT_ALONG",
	TokNotWith:  "NOT_WITH",
	TokNotSame:  "NOT_SAME",
	TokCase:     "CASE",
	TokNoCase:   "NOCASE",
	TokLower:    "LOWER",
	TokUpper:    "UPPER",
	TokTitle:    "TITLE",
	TokFuzzy:    "FUZZY",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// IsBoolean reports whether t combines operands at document level.
func (t TokenType) IsBoolean() bool {
	return t == TokOr || t == TokAnd || t == TokNot || t == TokXor
}

// IsProximity reports whether t is a plain proximity operator.
func (t TokenType) IsProximity() bool {
	return t >= TokAdj && t <= TokSame
}

// IsNotProximity reports whether t is a NOT-fused proximity operator.
func (t TokenType) IsNotProximity() bool {
	return t >= TokNotAdj && t <= TokNotSame
}

// IsModifier reports whether t is a prefix case or fuzzy modifier.
func (t TokenType) IsModifier() bool {
	return t >= TokCase && t <= TokFuzzy
}

// IsBinary reports whether t takes a left and a right operand.
func (t TokenType) IsBinary() bool {
	return t.IsBoolean() || t.IsProximity() || t.IsNotProximity()
}

// Negated maps a proximity operator to its NOT-fused form.
func (t TokenType) Negated() TokenType {
	if t.IsProximity() {
		return t + (TokNotAdj - TokAdj)
	}
	return t
}

// Positive maps a NOT-fused proximity operator back to its plain form.
func (t TokenType) Positive() TokenType {
	if t.IsNotProximity() {
		return t - (TokNotAdj - TokAdj)
	}
	return t
}

// HasNumber reports whether the numeric argument of t is shown when printed.
func (t TokenType) HasNumber() bool {
	return t.IsProximity() || t.IsNotProximity() || t == TokFuzzy
}

// Token is a lexical unit of a query.
type Token struct {
	Type TokenType
	// N is the proximity distance or the fuzzy edit budget.
	N    int
	Text string
	// Quotes counts the quote tokens seen up to and including this one.
	Quotes int
	// Seq is the 1-based position of the token in the token list.
	Seq int
	// Reason explains why an error token was rejected.
	Reason string
}

// Label is the operator label used in syntax tree rendering, e.g. NEAR5.
func (t Token) Label() string {
	if t.Type.HasNumber() {
		return fmt.Sprintf("%s%d", t.Type, t.N)
	}
	return t.Type.String()
}

type keywordClass int

const (
	classBoolean keywordClass = iota
	classProximity
	classModifier
)

type keyword struct {
	name  string
	typ   TokenType
	class keywordClass
}

var keywords = []keyword{
	{"OR", TokOr, classBoolean},
	{"AND", TokAnd, classBoolean},
	{"NOT", TokNot, classBoolean},
	{"XOR", TokXor, classBoolean},
	{"ADJ", TokAdj, classProximity},
	{"NEAR", TokNear, classProximity},
	{"AMONG", TokAmong, classProximity},
	{"ALONG", TokAlong, classProximity},
	{"WITH", TokWith, classProximity},
	{"SAME", TokSame, classProximity},
	{"CASE", TokCase, classModifier},
	{"NOCASE", TokNoCase, classModifier},
	{"LOWER", TokLower, classModifier},
	{"UPPER", TokUpper, classModifier},
	{"TITLE", TokTitle, classModifier},
	{"FUZZY", TokFuzzy, classModifier},
}

// lookupKeyword matches word, case-insensitively, against the keyword table.
// An exact name always wins; otherwise word must be a prefix of exactly one
// keyword, however short. "W" is WITH while "A" and "N" stay terms.
func lookupKeyword(word string) (keyword, bool) {
	if word == "" {
		return keyword{}, false
	}
	upper := strings.ToUpper(word)
	var found []keyword
	for _, kw := range keywords {
		if kw.name == upper {
			return kw, true
		}
		if strings.HasPrefix(kw.name, upper) {
			found = append(found, kw)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return keyword{}, false
}

// ParseOperator converts a configured default operator name to its type.
func ParseOperator(name string) (TokenType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "OR":
		return TokOr, nil
	case "AND":
		return TokAnd, nil
	case "XOR":
		return TokXor, nil
	}
	return TokError, fmt.Errorf("%w: unsupported default operator %q", apperrors.ErrInvalidConfig, name)
}
