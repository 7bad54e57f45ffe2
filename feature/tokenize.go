// Package feature turns raw text into numeric feature matrices for the
// estimators, following the tokenize-then-weigh shape of text recipes.
package feature

import (
	"strings"
	"unicode"
)

// snowballStopwords is the English snowball stopword list, minus the
// apostrophe contractions the tokenizer would split apart anyway.
var snowballStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves",
	"you", "your", "yours", "yourself", "yourselves",
	"he", "him", "his", "himself", "she", "her", "hers", "herself",
	"it", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "these", "those",
	"am", "is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "having", "do", "does", "did", "doing",
	"would", "should", "could", "ought", "cannot",
	"a", "an", "the", "and", "but", "if", "or", "because", "as",
	"until", "while", "of", "at", "by", "for", "with", "about",
	"against", "between", "into", "through", "during", "before",
	"after", "above", "below", "to", "from", "up", "down", "in",
	"out", "on", "off", "over", "under", "again", "further", "then",
	"once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than",
	"too", "very",
}

// Tokenizer splits text into lowercase word tokens. Tokens are maximal runs
// of letters and digits; everything else is a separator.
type Tokenizer struct {
	minTokenLen int
	stopwords   map[string]bool
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithMinTokenLength drops tokens shorter than n runes.
func WithMinTokenLength(n int) TokenizerOption {
	return func(t *Tokenizer) { t.minTokenLen = n }
}

// WithStopwords drops the given words after lowercasing.
func WithStopwords(words []string) TokenizerOption {
	return func(t *Tokenizer) {
		t.stopwords = make(map[string]bool, len(words))
		for _, w := range words {
			t.stopwords[strings.ToLower(w)] = true
		}
	}
}

// WithSnowballStopwords drops the builtin English snowball stopword list.
func WithSnowballStopwords() TokenizerOption {
	return WithStopwords(snowballStopwords)
}

// NewTokenizer creates a Tokenizer. The default keeps tokens of two or more
// runes and filters no stopwords.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{minTokenLen: 2}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize returns the tokens of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < t.minTokenLen {
			continue
		}
		if t.stopwords != nil && t.stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
