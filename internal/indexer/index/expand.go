package index

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/match"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
	apperrors "github.com/Adithya-Monish-Kumar-K/wosp/pkg/errors"
)

// CaseMode selects which letter cases a query term may match.
type CaseMode int

const (
	CaseInsensitive CaseMode = iota
	CaseSensitive
	CaseLower
	CaseUpper
	CaseTitle
)

var caseModeNames = map[CaseMode]string{
	CaseInsensitive: "insensitive",
	CaseSensitive:   "sensitive",
	CaseLower:       "lower",
	CaseUpper:       "upper",
	CaseTitle:       "title",
}

func (c CaseMode) String() string {
	if name, ok := caseModeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("case(%d)", int(c))
}

// ParseCaseMode converts a configuration name to a CaseMode.
func ParseCaseMode(name string) (CaseMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, n := range caseModeNames {
		if n == name {
			return mode, nil
		}
	}
	return CaseInsensitive, fmt.Errorf("%w: unknown case mode %q", apperrors.ErrInvalidConfig, name)
}

// ExpandOptions controls how a query term is turned into candidate keys.
type ExpandOptions struct {
	CaseMode   CaseMode
	EditBudget int
	Wildcard   rune
	// Truncation lists the marker characters; each may be followed by a
	// count of wildcard characters it may stand for.
	Truncation string
	// Reduce normalizes each finished candidate the way query text is.
	Reduce words.ReduceOptions
	// MaxCandidates bounds the number of generated candidates. Zero means
	// no bound.
	MaxCandidates int
}

// Expansion is the outcome of expanding one term.
type Expansion struct {
	Matches    match.List
	Candidates int
}

type expander struct {
	trie  *Trie
	opts  ExpandOptions
	count int
	out   match.List
	err   error
}

// Expand generates every candidate spelling of pattern allowed by opts and
// concatenates their matches. Duplicate matches are kept.
func (t *Trie) Expand(pattern string, opts ExpandOptions) (*Expansion, error) {
	if opts.EditBudget < 0 {
		return nil, fmt.Errorf("%w: negative edit budget %d", apperrors.ErrMalformedPattern, opts.EditBudget)
	}
	opts.Reduce.Wildcard = opts.Wildcard
	if !opts.Reduce.CaseSensitive {
		// Keys are already folded; case variants would only repeat matches.
		opts.CaseMode = CaseSensitive
	}
	e := &expander{trie: t, opts: opts}
	runes := []rune(pattern)
	if err := e.checkMarkers(runes); err != nil {
		return nil, err
	}
	e.walk(runes, 0, opts.EditBudget)
	if e.err != nil {
		return nil, e.err
	}
	return &Expansion{Matches: e.out, Candidates: e.count}, nil
}

func (e *expander) isMarker(r rune) bool {
	return strings.ContainsRune(e.opts.Truncation, r)
}

// marker reads the count following the truncation marker at i. It returns
// the count and the index just past the marker and its digits.
func (e *expander) marker(p []rune, i int) (int, int, error) {
	j := i + 1
	for j < len(p) && p[j] >= '0' && p[j] <= '9' {
		j++
	}
	if j == i+1 {
		return e.trie.height, j, nil
	}
	k, err := strconv.Atoi(string(p[i+1 : j]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: truncation %q: %v", apperrors.ErrMalformedPattern, string(p[i:j]), err)
	}
	return k, j, nil
}

func (e *expander) checkMarkers(p []rune) error {
	for i := 0; i < len(p); i++ {
		if !e.isMarker(p[i]) {
			continue
		}
		_, next, err := e.marker(p, i)
		if err != nil {
			return err
		}
		i = next - 1
	}
	return nil
}

func (e *expander) walk(p []rune, i, budget int) {
	if e.err != nil {
		return
	}
	if i >= len(p) {
		if budget > 0 {
			e.walk(insertRune(p, len(p), e.opts.Wildcard), len(p)+1, budget-1)
		}
		e.emit(p)
		return
	}
	r := p[i]
	if e.isMarker(r) {
		k, next, err := e.marker(p, i)
		if err != nil {
			e.err = err
			return
		}
		if k > e.trie.height {
			k = e.trie.height
		}
		for j := 0; j <= k; j++ {
			q := make([]rune, 0, i+j+len(p)-next)
			q = append(q, p[:i]...)
			for n := 0; n < j; n++ {
				q = append(q, e.opts.Wildcard)
			}
			q = append(q, p[next:]...)
			e.walk(q, i+j, budget)
		}
		return
	}
	e.walk(p, i+1, budget)
	if budget <= 0 {
		return
	}
	e.walk(insertRune(p, i, e.opts.Wildcard), i+1, budget-1)
	e.walk(deleteRune(p, i), i, budget-1)
	e.walk(replaceRune(p, i, e.opts.Wildcard), i+1, budget-1)
	if i+1 < len(p) && !e.isMarker(p[i+1]) {
		q := replaceRune(p, i, p[i+1])
		q[i+1] = p[i]
		e.walk(q, i, budget-1)
	}
}

// variants lists the runes a key may carry where the candidate has r at
// index i. Case variants are resolved while walking the trie, so a
// candidate counts once whatever its case mode.
func variants(mode CaseMode, r rune, i int) []rune {
	if mode == CaseSensitive || !unicode.IsLetter(r) {
		return []rune{r}
	}
	lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
	switch mode {
	case CaseLower:
		return []rune{lower}
	case CaseUpper:
		return []rune{upper}
	case CaseTitle:
		if i == 0 {
			return []rune{upper}
		}
		return []rune{lower}
	}
	if lower == upper {
		return []rune{r}
	}
	return []rune{lower, upper}
}

func (e *expander) emit(p []rune) {
	e.count++
	if e.opts.MaxCandidates > 0 && e.count > e.opts.MaxCandidates {
		e.err = fmt.Errorf("%w: more than %d candidates", apperrors.ErrExpansionLimit, e.opts.MaxCandidates)
		return
	}
	key := words.Reduce(string(p), words.OriginQuery, e.opts.Reduce)
	if key == "" {
		return
	}
	e.out = append(e.out, e.trie.backtrackCase([]rune(key), e.opts.Wildcard, e.opts.CaseMode)...)
}

func insertRune(p []rune, i int, r rune) []rune {
	q := make([]rune, 0, len(p)+1)
	q = append(q, p[:i]...)
	q = append(q, r)
	return append(q, p[i:]...)
}

func deleteRune(p []rune, i int) []rune {
	q := make([]rune, 0, len(p)-1)
	q = append(q, p[:i]...)
	return append(q, p[i+1:]...)
}

func replaceRune(p []rune, i int, r rune) []rune {
	q := make([]rune, len(p))
	copy(q, p)
	q[i] = r
	return q
}
