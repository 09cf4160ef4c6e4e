// Package tokenizer splits source text into positioned words. A word is a
// maximal run of non-space characters; punctuation stays attached so that
// clause and sentence boundaries can be detected later.
package tokenizer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

// Read tokenizes everything in r. Lines and columns are 1-based and counted
// in characters; a form feed starts a new page.
func Read(r io.Reader, filename string) ([]words.Word, error) {
	br := bufio.NewReader(r)
	var (
		out          []words.Word
		cur          strings.Builder
		line, column = 1, 1
		page         = 1
		start        int
		prev         rune
	)
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		out = append(out, words.Word{
			Original: cur.String(),
			Filename: filename,
			Line:     line,
			Column:   start,
			Page:     page,
		})
		cur.Reset()
	}
	for {
		c, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filename, err)
		}
		if !unicode.IsSpace(c) {
			if cur.Len() == 0 {
				start = column
			}
			cur.WriteRune(c)
			column++
			prev = c
			continue
		}
		flush()
		switch c {
		case '\n':
			if prev != '\r' {
				line++
			}
			column = 1
		case '\r':
			line++
			column = 1
		case '\f':
			page++
			column++
		default:
			column++
		}
		prev = c
	}
	flush()
	return out, nil
}

// Tokenize is Read over an in-memory string.
func Tokenize(filename, text string) []words.Word {
	ws, _ := Read(strings.NewReader(text), filename)
	return ws
}
