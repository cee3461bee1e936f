// pkg/policy/text.go
package policy

import (
	"regexp"
	"strings"
)

var (
	thousandsSep = regexp.MustCompile(`(\d),(\d{3})`)
	dashRange    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)`)
	tokenPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?|\p{L}+|₹`)
)

// Tokenize lower-cases text and splits it into words, numbers and the
// rupee sign. "50-100" becomes "50 to 100"; a leading minus stays on the
// number so negative amounts can be rejected.
func Tokenize(text string) []string {
	s := strings.ToLower(text)
	for thousandsSep.MatchString(s) {
		s = thousandsSep.ReplaceAllString(s, "$1$2")
	}
	s = dashRange.ReplaceAllString(s, "$1 to $2")
	return tokenPattern.FindAllString(s, -1)
}

// PhraseAt reports whether phrase (space separated) occurs in tokens at i.
func PhraseAt(tokens []string, i int, phrase string) bool {
	words := strings.Fields(phrase)
	if len(words) == 0 || i < 0 || i+len(words) > len(tokens) {
		return false
	}
	for j, w := range words {
		if tokens[i+j] != w {
			return false
		}
	}
	return true
}

// FindPhrase returns the first index where phrase occurs, or -1.
func FindPhrase(tokens []string, phrase string) int {
	for i := range tokens {
		if PhraseAt(tokens, i, phrase) {
			return i
		}
	}
	return -1
}

// PhraseLen is the number of tokens in phrase.
func PhraseLen(phrase string) int {
	return len(strings.Fields(phrase))
}
