package tokenizer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/words"
)

type pos struct {
	Text   string
	Line   int
	Column int
	Page   int
}

func positions(ws []words.Word) []pos {
	out := make([]pos, len(ws))
	for i, w := range ws {
		out[i] = pos{w.Original, w.Line, w.Column, w.Page}
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []pos
	}{
		{"empty", "", []pos{}},
		{"spaces only", "  \t\n ", []pos{}},
		{
			"punctuation stays attached",
			"Hello, world.",
			[]pos{{"Hello,", 1, 1, 1}, {"world.", 1, 8, 1}},
		},
		{
			"lines",
			"one two\n  three",
			[]pos{{"one", 1, 1, 1}, {"two", 1, 5, 1}, {"three", 2, 3, 1}},
		},
		{
			"crlf counts once",
			"a\r\nb\rc",
			[]pos{{"a", 1, 1, 1}, {"b", 2, 1, 1}, {"c", 3, 1, 1}},
		},
		{
			"form feed starts a page",
			"first\fsecond\nthird",
			[]pos{{"first", 1, 1, 1}, {"second", 1, 7, 2}, {"third", 2, 1, 2}},
		},
		{
			"multibyte columns",
			"café bar",
			[]pos{{"café", 1, 1, 1}, {"bar", 1, 6, 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := positions(Tokenize("f.txt", tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeFilename(t *testing.T) {
	for _, w := range Tokenize("notes.txt", "a b c") {
		if w.Filename != "notes.txt" {
			t.Errorf("Filename = %q", w.Filename)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestReadError(t *testing.T) {
	if _, err := Read(failingReader{}, "bad"); err == nil {
		t.Fatal("expected an error")
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := "Distributed search engines split documents into words, index them, and answer queries. "
	for i := 0; i < 6; i++ {
		text += text
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Tokenize("bench", text)
	}
}
