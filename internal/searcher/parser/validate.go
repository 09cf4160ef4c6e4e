package parser

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// SyntaxError locates a problem in a query by token sequence number.
type SyntaxError struct {
	Seq    int    `json:"seq"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e *SyntaxError) Error() string {
	if e.Seq == 0 {
		return e.Reason
	}
	return fmt.Sprintf("token %d %q: %s", e.Seq, e.Text, e.Reason)
}

// ErrorList collects every syntax error found in a query.
type ErrorList []*SyntaxError

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (l ErrorList) Unwrap() error {
	return apperrors.ErrInvalidQuery
}

func (l *ErrorList) add(t Token, reason string) {
	*l = append(*l, &SyntaxError{Seq: t.Seq, Text: t.Text, Reason: reason})
}

// Validate checks the structure of a token list before it is parsed. All
// problems are reported at once.
func Validate(tokens []Token) error {
	var errs ErrorList
	if len(tokens) == 0 {
		errs = append(errs, &SyntaxError{Reason: "empty query"})
		return errs
	}

	var parens []Token
	var openQuote *Token
	for i, t := range tokens {
		var prev, next *Token
		if i > 0 {
			prev = &tokens[i-1]
		}
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}
		quoted := t.Quotes%2 == 1 && t.Type != TokQuote

		switch {
		case t.Type == TokError:
			reason := t.Reason
			if reason == "" {
				reason = "unrecognized token"
			}
			errs.add(t, reason)

		case t.Type == TokQuote:
			if t.Quotes%2 == 1 {
				openQuote = &tokens[i]
				if next != nil && next.Type == TokQuote {
					errs.add(t, "empty quotation")
				}
			} else {
				openQuote = nil
			}

		case t.Type == TokLParen:
			if quoted {
				errs.add(t, "parenthesis inside quotation")
				break
			}
			parens = append(parens, t)
			if next != nil && next.Type == TokRParen {
				errs.add(t, "empty parentheses")
			}

		case t.Type == TokRParen:
			if quoted {
				errs.add(t, "parenthesis inside quotation")
				break
			}
			if len(parens) == 0 {
				errs.add(t, "unmatched closing parenthesis")
				break
			}
			parens = parens[:len(parens)-1]

		case t.Type.IsBinary():
			if quoted && t.Type != TokAdj {
				errs.add(t, "operator inside quotation")
				break
			}
			if prev == nil || !closesOperand(*prev) {
				errs.add(t, "operator is missing its left operand")
			}
			if next == nil || !opensOperand(*next) {
				errs.add(t, "operator is missing its right operand")
			}

		case t.Type.IsModifier():
			if quoted {
				errs.add(t, "modifier inside quotation")
				break
			}
			if next == nil || !opensOperand(*next) {
				errs.add(t, "modifier is missing its operand")
			}

		case t.Type == TokWildcard:
			if !quoted && prev != nil && prev.Type == TokWildcard {
				errs.add(t, "two terms without an operator")
			}
		}
	}
	for _, t := range parens {
		errs.add(t, "unmatched opening parenthesis")
	}
	if openQuote != nil {
		errs.add(*openQuote, "unbalanced quotation")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// closesOperand reports whether t can be the last token of an operand.
func closesOperand(t Token) bool {
	switch t.Type {
	case TokWildcard, TokRParen:
		return true
	case TokQuote:
		return t.Quotes%2 == 0
	}
	return false
}

// opensOperand reports whether t can be the first token of an operand.
func opensOperand(t Token) bool {
	switch {
	case t.Type == TokWildcard, t.Type == TokLParen, t.Type.IsModifier():
		return true
	case t.Type == TokQuote:
		return t.Quotes%2 == 1
	}
	return false
}
