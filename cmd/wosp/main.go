// Command wosp searches text files with boolean and proximity queries.
//
//	wosp search 'contract WITH assent' docs/*.txt
//	wosp tree 'a b NEAR2 c'
//	wosp serve docs/*.txt
//
// search exits 0 when something matched, 1 when nothing did and 2 on
// errors, like grep.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	switch {
	case err == nil:
	case errors.Is(err, errNoMatches):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "wosp: %v\n", err)
		os.Exit(2)
	}
}
