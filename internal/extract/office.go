package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

// zipText is a zipped XML document format whose text lives in leaf elements of some entries.
type zipText struct {
	name  string
	entry func(name string) bool
	// leaf matches a text element without nested markup; group 1 is the text.
	leaf *regexp.Regexp
}

var (
	pptxFormat = zipText{
		name: "PPTX",
		entry: func(name string) bool {
			return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
		},
		leaf: regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`),
	}
	// OpenDocument text, spreadsheet and presentation files share content.xml and the text: namespace.
	openDocumentFormat = zipText{
		name:  "OpenDocument",
		entry: func(name string) bool { return name == "content.xml" },
		leaf:  regexp.MustCompile(`<text:(?:p|h|span)(?:\s[^>]*)?>([^<]*)</text:(?:p|h|span)>`),
	}
)

func extractPPTX(content []byte) (string, error) {
	return pptxFormat.extract(content)
}

func extractOpenDocument(content []byte) (string, error) {
	return openDocumentFormat.extract(content)
}

// extract returns the non-empty leaf texts of all matching entries, one per line, in document order.
// Entries are visited in natural order so slide10 follows slide9.
func (f zipText) extract(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract %s: not a zip: %w", f.name, err)
	}
	var names []string
	for _, zf := range zr.File {
		if f.entry(zf.Name) {
			names = append(names, zf.Name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("extract %s: no text parts", f.name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})

	var lines []string
	for _, name := range names {
		data, err := readZipEntry(zr, name)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", f.name, err)
		}
		for _, m := range f.leaf.FindAllSubmatch(data, -1) {
			if text := strings.TrimSpace(html.UnescapeString(string(m[1]))); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
