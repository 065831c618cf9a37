package suggest

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/search"
)

// MaxDistance is the largest edit distance a suggestion may have.
const MaxDistance = 2

// MaxOptions is the number of options kept per token.
const MaxOptions = 5

// Option is a single corrected term for a token.
type Option struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Freq  int     `json:"freq"`
}

// Entry holds the options for one token of the suggested text.
// Offset and Length are in runes.
type Entry struct {
	Text    string   `json:"text"`
	Offset  int      `json:"offset"`
	Length  int      `json:"length"`
	Options []Option `json:"options"`
}

// Token is a lower-cased word of the input with its rune position.
type Token struct {
	Text   string
	Offset int
	Length int
}

// Tokenize splits s on anything that is not a letter or digit.
func Tokenize(s string) []Token {
	var (
		out   []Token
		start = -1
		pos   int
		b     strings.Builder
	)
	flush := func() {
		if start >= 0 {
			out = append(out, Token{Text: b.String(), Offset: start, Length: pos - start})
			b.Reset()
			start = -1
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = pos
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
		pos++
	}
	flush()
	return out
}

// Distance returns the edit distance between a and b.
func Distance(a, b string) int {
	return search.LevenshteinDistance(a, b)
}

// Score rates a candidate for token: 1 for an exact match, decreasing by
// one token-length fraction per edit.
func Score(token, candidate string) float64 {
	n := utf8.RuneCountInString(token)
	if n == 0 {
		return 0
	}
	s := 1 - float64(Distance(token, candidate))/float64(n)
	return max(s, 0)
}

// Rank orders options by score, then frequency (both descending), then text,
// and keeps at most MaxOptions.
func Rank(opts []Option) []Option {
	slices.SortStableFunc(opts, func(a, b Option) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Freq, a.Freq); c != 0 {
			return c
		}
		return strings.Compare(a.Text, b.Text)
	})
	if len(opts) > MaxOptions {
		opts = opts[:MaxOptions]
	}
	return opts
}
