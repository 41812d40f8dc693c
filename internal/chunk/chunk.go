// Package chunk splits long replies into transport-sized messages without
// breaking words.
package chunk

import (
	"iter"
	"strings"
	"unicode"
)

// DefaultMaxSize keeps each chunk under the messaging body limit with margin.
const DefaultMaxSize = 1600

// Split yields trimmed, non-empty chunks of at most maxSize runes. A cut that
// would land inside a word retreats to the last whitespace before it; a word
// longer than maxSize is cut hard at maxSize. The sequence can be ranged over
// any number of times and always yields the same chunks.
func Split(text string, maxSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if maxSize <= 0 {
			return
		}
		runes := []rune(text)
		n := len(runes)
		start := skipSpace(runes, 0)
		for start < n {
			end := start + maxSize
			if end >= n {
				if c := strings.TrimSpace(string(runes[start:])); c != "" {
					yield(c)
				}
				return
			}
			cut := end
			if !unicode.IsSpace(runes[end]) {
				if i := lastSpace(runes, start, end); i > start {
					cut = i
				}
			}
			if c := strings.TrimSpace(string(runes[start:cut])); c != "" {
				if !yield(c) {
					return
				}
			}
			start = skipSpace(runes, cut)
		}
	}
}

// Chunks collects Split into a slice.
func Chunks(text string, maxSize int) []string {
	var out []string
	for c := range Split(text, maxSize) {
		out = append(out, c)
	}
	return out
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

// lastSpace returns the index of the last whitespace rune in runes[from:to],
// or -1.
func lastSpace(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
