package similarity

import (
	"strings"
)

// minWordLen is the exclusive lower bound on the rune length of a non-CJK token.
const minWordLen = 2

// TokenSet is an unordered set of tokens.
type TokenSet map[string]struct{}

// Contains reports whether tok is in the set.
func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Slice returns the tokens in unspecified order.
func (s TokenSet) Slice() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	return out
}

// IsCJK reports whether r is in the CJK Unified Ideographs range handled by the tokenizer (U+4E00..U+9FA5).
func IsCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fa5
}

// Tokenize normalizes text and returns its token set.
// Each run of CJK ideographs contributes every character and every adjacent pair of characters.
// The remaining text is split on whitespace and words longer than two characters are kept.
func Tokenize(text string) TokenSet {
	return tokenizeNormalized(Normalize(text))
}

func tokenizeNormalized(text string) TokenSet {
	tokens := make(TokenSet)

	var run []rune
	flush := func() {
		for i, r := range run {
			tokens[string(r)] = struct{}{}
			if i+1 < len(run) {
				tokens[string(run[i:i+2])] = struct{}{}
			}
		}
		run = run[:0]
	}
	rest := make([]rune, 0, len(text))
	for _, r := range text {
		if IsCJK(r) {
			run = append(run, r)
			rest = append(rest, ' ')
			continue
		}
		flush()
		rest = append(rest, r)
	}
	flush()

	for _, word := range strings.Fields(string(rest)) {
		if len([]rune(word)) > minWordLen {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}
