package jsgf

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tokenize splits an utterance into whitespace-separated tokens, the same
// unit a Literal's own (pre-split) words are compared against.
func Tokenize(speech string) []string {
	return strings.Fields(speech)
}

// tokenEquals compares a literal word against an input token under the
// given case policy. Case-insensitive comparison uses a locale-agnostic
// case fold; a Caser keeps state between calls, so a fresh one is made per
// comparison instead of one being shared across goroutines.
func tokenEquals(word, token string, caseSensitive bool) bool {
	if caseSensitive {
		return word == token
	}
	fold := cases.Fold()
	return fold.String(word) == fold.String(token)
}
