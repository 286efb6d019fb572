package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"a", "61"},
		{"ab", "c21"},
		{"hello", "5e918d2"},
		{"The quick brown fox jumps over the lazy dog", "-245322ad"},
		{"苹果手机", "3d1aad52"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fingerprint(tt.in), tt.in)
	}
}

func TestFingerprint_distinguishesContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint("note one"), Fingerprint("note two"))
	assert.Equal(t, Fingerprint("same"), Fingerprint("same"))
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"whitespace", "  \n\t ", 0},
		{"latin", "the quick  brown\nfox", 4},
		{"cjk", "苹果手机", 4},
		{"mixed", "hello 世界 world", 4},
		{"cjk adjacent to latin", "go语言", 3},
		{"code block", "one\n```\nskip these words\n```\ntwo", 2},
		{"inline code", "run `go test ./...` now", 2},
		{"link", "see [the docs](https://example.com)", 3},
		{"markup only", "** ## ~~", 0},
		{"heading", "# Title here", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.in))
		})
	}
}
