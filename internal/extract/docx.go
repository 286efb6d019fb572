package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultBody  = "word/document.xml"
	docxContentTypes = "[Content_Types].xml"
	docxMainType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

var (
	// <w:t>text</w:t>, with or without attributes.
	docxTextRun = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// End of a paragraph; used to keep paragraph breaks as newlines.
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	// Override element for the main document part, in either attribute order.
	docxOverride = regexp.MustCompile(`<Override\b[^>]*>`)
	docxPartName = regexp.MustCompile(`PartName="([^"]+)"`)
)

// extractDOCX returns the text runs of a .docx body. Paragraphs are separated by newlines
// so markdown-like structure survives for word counting.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	bodyPath := docxBodyPath(zr)
	body, err := readZipEntry(zr, bodyPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	var b strings.Builder
	for _, para := range docxParagraphEnd.Split(string(body), -1) {
		runs := docxTextRun.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		for _, r := range runs {
			b.WriteString(r[1])
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// docxBodyPath reads [Content_Types].xml to locate the main document part,
// falling back to word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	types, err := readZipEntry(zr, docxContentTypes)
	if err != nil {
		return docxDefaultBody
	}
	for _, override := range docxOverride.FindAllString(string(types), -1) {
		if !strings.Contains(override, `ContentType="`+docxMainType+`"`) {
			continue
		}
		if m := docxPartName.FindStringSubmatch(override); m != nil {
			return strings.TrimPrefix(m[1], "/")
		}
	}
	return docxDefaultBody
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}
