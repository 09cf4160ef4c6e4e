package parser

import (
	"strconv"
	"strings"
	"unicode"
)

// Options configures lexing.
type Options struct {
	// DefaultOperator is inserted between two operands written without an
	// operator.
	DefaultOperator TokenType
	// QuoteChars are the characters that open and close phrases.
	QuoteChars string
	// Wildcard and Truncation are kept inside terms; a term made of nothing
	// else but punctuation is rejected.
	Wildcard   rune
	Truncation string
}

// DefaultOptions returns the lexing defaults.
func DefaultOptions() Options {
	return Options{
		DefaultOperator: TokOr,
		QuoteChars:      `"`,
		Wildcard:        '?',
		Truncation:      "$#",
	}
}

type lexer struct {
	input  string
	opts   Options
	tokens []Token
	quotes int
}

// Lex tokenizes query. Lexing never fails: malformed pieces become TokError
// tokens that Validate reports.
func Lex(query string, opts Options) []Token {
	if opts.DefaultOperator == TokError {
		opts.DefaultOperator = TokOr
	}
	l := &lexer{input: query, opts: opts}
	l.run()
	for i := range l.tokens {
		l.tokens[i].Seq = i + 1
	}
	return l.tokens
}

func (l *lexer) isQuote(r rune) bool {
	return strings.ContainsRune(l.opts.QuoteChars, r)
}

func (l *lexer) run() {
	runes := []rune(l.input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			l.insert(Token{Type: TokLParen, Text: "("})
			i++
		case r == ')':
			l.insert(Token{Type: TokRParen, Text: ")"})
			i++
		case l.isQuote(r):
			l.insert(Token{Type: TokQuote, Text: string(r)})
			i++
		default:
			start := i
			for i < len(runes) && !unicode.IsSpace(runes[i]) && runes[i] != '(' && runes[i] != ')' && !l.isQuote(runes[i]) {
				i++
			}
			l.insert(l.classify(string(runes[start:i])))
		}
	}
}

// classify splits text into an alphabetic prefix and a suffix and decides
// whether it names an operator, a modifier or a search term.
func (l *lexer) classify(text string) Token {
	split := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	prefix, suffix := text, ""
	if split >= 0 {
		prefix, suffix = text[:split], text[split:]
	}
	if kw, ok := lookupKeyword(prefix); ok {
		switch kw.class {
		case classBoolean:
			if suffix == "" {
				return Token{Type: kw.typ, Text: text}
			}
		case classProximity:
			if isDigits(suffix) {
				n := 1
				if suffix != "" {
					v, err := strconv.Atoi(suffix)
					if err != nil {
						return Token{Type: TokError, Text: text, Reason: "distance out of range"}
					}
					n = v
				}
				if n < 1 {
					return Token{Type: TokError, Text: text, Reason: "distance must be at least 1"}
				}
				return Token{Type: kw.typ, N: n, Text: text}
			}
		case classModifier:
			if isDigits(suffix) {
				n := 0
				if suffix != "" {
					v, err := strconv.Atoi(suffix)
					if err != nil {
						return Token{Type: TokError, Text: text, Reason: "argument out of range"}
					}
					n = v
				}
				return Token{Type: kw.typ, N: n, Text: text}
			}
		}
	}
	if !l.hasSearchable(text) {
		return Token{Type: TokError, Text: text, Reason: "term has no searchable characters"}
	}
	return Token{Type: TokWildcard, Text: text}
}

func (l *lexer) hasSearchable(text string) bool {
	for _, r := range text {
		if r == l.opts.Wildcard || strings.ContainsRune(l.opts.Truncation, r) {
			return true
		}
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (l *lexer) last() *Token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

// startsOperand reports whether a token of type t, arriving outside a
// quotation, begins a new operand.
func startsOperand(t TokenType) bool {
	return t == TokWildcard || t == TokQuote || t == TokLParen || t.IsModifier()
}

// insert appends tok, first inserting the default operator between two
// adjacent operands and fusing NOT with a following proximity operator.
// Neither happens inside an open quotation.
func (l *lexer) insert(tok Token) {
	inQuote := l.quotes%2 == 1
	prev := l.last()
	if !inQuote && prev != nil {
		if startsOperand(tok.Type) && closesOperand(*prev) {
			l.insert(Token{Type: l.opts.DefaultOperator, Text: l.opts.DefaultOperator.String()})
			prev = l.last()
		}
		if prev.Type == TokNot && tok.Type.IsProximity() {
			prev.Type = tok.Type.Negated()
			prev.N = tok.N
			prev.Text += " " + tok.Text
			return
		}
		if prev.Type == TokAnd && tok.Type == TokNot {
			prev.Type = TokNot
			prev.Text += " " + tok.Text
			return
		}
	}
	if tok.Type == TokQuote {
		l.quotes++
	}
	tok.Quotes = l.quotes
	l.tokens = append(l.tokens, tok)
}
