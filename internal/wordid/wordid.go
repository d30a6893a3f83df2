// Package wordid generates short human-readable identifiers from an
// embedded word list, for naming artifacts like profile dumps without
// resorting to opaque hex.
package wordid

import (
	_ "embed"
	"math/rand/v2"
	"strings"
)

//go:embed words.txt
var wordsFile string

var words = strings.Fields(wordsFile)

// DefaultSegments is the number of words in identifiers produced by New.
const DefaultSegments = 3

// New returns an identifier like "harbor-quartz-wren".
func New() string {
	return Generate(DefaultSegments)
}

// Generate returns an identifier of n hyphen-joined words. Values below
// one are treated as one.
func Generate(n int) string {
	if n < 1 {
		n = 1
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rand.IntN(len(words))]
	}
	return strings.Join(parts, "-")
}
