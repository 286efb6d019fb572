package similarity

import (
	"regexp"
	"strings"
)

var (
	fencedCodeRe  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	remoteImageRe = regexp.MustCompile(`!\[[^\]]*\]\(https?://[^)]*\)`)
	localImageRe  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headingRe     = regexp.MustCompile(`(?m)^#+\s*`)
	markupRe      = regexp.MustCompile("[#*_~`\\[\\]()]")
)

// Normalize strips markdown markup from text and lowercases it.
// Code and images are removed before links are reduced to their labels.
func Normalize(text string) string {
	text = fencedCodeRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "")
	text = remoteImageRe.ReplaceAllString(text, "")
	text = localImageRe.ReplaceAllString(text, "")
	text = linkRe.ReplaceAllString(text, "${1}")
	text = headingRe.ReplaceAllString(text, "")
	text = markupRe.ReplaceAllString(text, "")
	return strings.ToLower(text)
}
