// Package similarity scores how alike two documents are using Jaccard similarity over script-aware token sets.
package similarity

import (
	"math"
	"unicode/utf8"
)

// MinLengthRatio is the shortest-to-longest length ratio below which two texts are
// considered dissimilar without tokenizing them.
const MinLengthRatio = 0.3

// Profile caches what the comparison needs to know about one text: its length,
// and its token set once a comparison has needed it.
// A Profile is not safe for concurrent use.
type Profile struct {
	text   string
	length int
	tokens TokenSet
}

// NewProfile returns a profile for text. Tokenization is deferred until first needed.
func NewProfile(text string) *Profile {
	return &Profile{text: text, length: utf8.RuneCountInString(text)}
}

// Len returns the length of the text in characters.
func (p *Profile) Len() int {
	return p.length
}

// Tokens returns the token set of the text, computing it on first call.
func (p *Profile) Tokens() TokenSet {
	if p.tokens == nil {
		p.tokens = Tokenize(p.text)
	}
	return p.tokens
}

// LengthRatio returns min(a,b)/max(a,b). Two empty texts have ratio 1.
func LengthRatio(a, b int) float64 {
	lo, hi := min(a, b), max(a, b)
	if hi == 0 {
		return 1
	}
	return float64(lo) / float64(hi)
}

// Similarity returns a score in [0,100] for two texts.
func Similarity(a, b string) int {
	return Compare(NewProfile(a), NewProfile(b))
}

// Compare scores two profiles. Pairs whose length ratio is below MinLengthRatio score 0
// and are never tokenized.
func Compare(a, b *Profile) int {
	if LengthRatio(a.Len(), b.Len()) < MinLengthRatio {
		return 0
	}
	return Jaccard(a.Tokens(), b.Tokens())
}

// Jaccard returns round(|a∩b| / |a∪b| * 100). Two empty sets score 100; one empty set scores 0.
func Jaccard(a, b TokenSet) int {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return int(math.Round(float64(intersection) / float64(union) * 100))
}
