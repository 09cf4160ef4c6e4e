// Package benchmark measures the search pipeline end to end: tokenizing,
// building the trie, expanding terms and evaluating queries over a
// synthetic corpus.
package benchmark

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/tokenizer"
)

var vocabulary = strings.Fields(`contract law assent offer acceptance consideration
	breach remedy damages court plaintiff defendant statute tort negligence duty
	standard care reasonable person property title deed lease tenant landlord
	judge jury verdict appeal motion evidence witness testimony`)

// synthText writes paragraphs of random sentences drawn from vocabulary.
func synthText(r *rand.Rand, sentences int) string {
	var b strings.Builder
	for s := 0; s < sentences; s++ {
		n := 4 + r.Intn(12)
		for i := 0; i < n; i++ {
			w := vocabulary[r.Intn(len(vocabulary))]
			if i == 0 {
				w = strings.ToUpper(w[:1]) + w[1:]
			}
			b.WriteString(w)
			switch {
			case i == n-1:
				b.WriteString(".")
			case r.Intn(6) == 0:
				b.WriteString(",")
			}
			b.WriteByte(' ')
		}
		if s%5 == 4 {
			b.WriteString("\n\n")
		} else if s%2 == 1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// synthDocs returns n documents of the given size in sentences.
func synthDocs(n, sentences int) []source.Document {
	r := rand.New(rand.NewSource(42))
	docs := make([]source.Document, n)
	for i := range docs {
		name := fmt.Sprintf("doc-%04d.txt", i)
		docs[i] = source.Document{Name: name, Words: tokenizer.Tokenize(name, synthText(r, sentences))}
	}
	return docs
}
