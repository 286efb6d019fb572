package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/futago/internal/similarity"
)

// Fingerprint returns a 32-bit rolling hash of content (h = h*31 + c, wrapping) as signed hex.
// It is an equality key only.
func Fingerprint(content string) string {
	var h int32
	for _, r := range content {
		h = (h << 5) - h + int32(r)
	}
	return strconv.FormatInt(int64(h), 16)
}

var (
	codeBlockRe   = regexp.MustCompile("```[\\s\\S]*?```")
	codeSpanRe    = regexp.MustCompile("`[^`]*`")
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	punctuationRe = regexp.MustCompile("[#*_~`]")
)

// CountWords counts words in markdown content. Each CJK ideograph is one word;
// other text counts one word per whitespace-separated segment.
func CountWords(content string) int {
	text := codeBlockRe.ReplaceAllString(content, "")
	text = codeSpanRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "${1}")
	text = punctuationRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	cjk := 0
	rest := strings.Map(func(r rune) rune {
		if similarity.IsCJK(r) {
			cjk++
			return ' '
		}
		return r
	}, text)
	return cjk + len(strings.Fields(rest))
}
