// Package words holds the positional word model that every query operates
// on: normalized tokens grouped into documents (fields), the boundary rules
// for clauses, sentences and paragraphs, and navigation by language element.
package words

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Word is one token read from a source. Words are immutable once a Corpus
// has been built; queries only borrow them.
type Word struct {
	Original string
	Reduced  string
	Filename string
	Line     int
	Column   int
	Page     int
	// Position is unique across the corpus and dense: the n-th word added to
	// the corpus has Position n.
	Position int
	// Field is the index of the owning Document in the corpus.
	Field int
	// Offset is the index of the word inside its Document.
	Offset int
}

func (w *Word) String() string {
	return fmt.Sprintf("%s:%d:%d %q", w.Filename, w.Line, w.Column, w.Original)
}

// Origin selects how Reduce treats the wildcard character.
type Origin int

const (
	OriginSource Origin = iota
	OriginQuery
)

// ReduceOptions controls word normalization.
type ReduceOptions struct {
	CaseSensitive bool
	Wildcard      rune
}

// Reduce strips punctuation and symbols from original and, unless case
// sensitivity is enabled, lowercases the rest. The wildcard character
// survives only when the text comes from a query.
func Reduce(original string, origin Origin, opts ReduceOptions) string {
	var b strings.Builder
	b.Grow(len(original))
	for _, r := range original {
		if r == opts.Wildcard && origin == OriginQuery {
			b.WriteRune(r)
			continue
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		if !opts.CaseSensitive {
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '‘', '’', '“', '”':
		return true
	}
	return false
}

func isSentencePunct(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

func isClausePunct(r rune) bool {
	return r == ',' || r == ';' || r == ':'
}

// lastMark returns the last rune of s, skipping one trailing quote.
func lastMark(s string) rune {
	r, size := utf8.DecodeLastRuneInString(s)
	if isQuote(r) && size < len(s) {
		r, _ = utf8.DecodeLastRuneInString(s[:len(s)-size])
	}
	return r
}

// firstMark returns the first rune of s, skipping one leading quote.
func firstMark(s string) rune {
	r, size := utf8.DecodeRuneInString(s)
	if isQuote(r) && size < len(s) {
		r, _ = utf8.DecodeRuneInString(s[size:])
	}
	return r
}

func endsSentence(original string) bool {
	return original != "" && isSentencePunct(lastMark(original))
}

func endsClause(original string) bool {
	return original != "" && isClausePunct(lastMark(original))
}

func startsSentence(original string) bool {
	if original == "" {
		return false
	}
	r := firstMark(original)
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}
