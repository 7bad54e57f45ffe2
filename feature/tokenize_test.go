package feature

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		opts []TokenizerOption
		text string
		want []string
	}{
		{
			name: "lowercase and split on punctuation",
			text: "Human Capital, Fertility: and Growth!",
			want: []string{"human", "capital", "fertility", "and", "growth"},
		},
		{
			name: "digits kept",
			text: "Trade in 2021",
			want: []string{"trade", "in", "2021"},
		},
		{
			name: "short tokens dropped by default",
			text: "a tale of q theory",
			want: []string{"tale", "of", "theory"},
		},
		{
			name: "min length one keeps single letters",
			opts: []TokenizerOption{WithMinTokenLength(1)},
			text: "a q theory",
			want: []string{"a", "q", "theory"},
		},
		{
			name: "snowball stopwords removed",
			opts: []TokenizerOption{WithSnowballStopwords()},
			text: "The Effect of the Minimum Wage",
			want: []string{"effect", "minimum", "wage"},
		},
		{
			name: "custom stopwords",
			opts: []TokenizerOption{WithStopwords([]string{"evidence"})},
			text: "Evidence from France",
			want: []string{"from", "france"},
		},
		{
			name: "empty text",
			text: "  ... !!",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTokenizer(tt.opts...).Tokenize(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
