package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/futago/internal/models"
)

func sampleGroups() []*models.DuplicateGroup {
	a := &models.Document{Path: "notes/a.md", Title: "a", Content: "same words here", Fingerprint: "1f", WordCount: 3}
	b := &models.Document{Path: "notes/b.md", Title: "b", Content: "same words here", Fingerprint: "1f", WordCount: 3}
	c := &models.Document{Path: "c.md", Title: "c", Content: "苹果手机", Fingerprint: "2e", WordCount: 4}
	d := &models.Document{Path: "d.md", Title: "d", Content: "苹果手表", Fingerprint: "3d", WordCount: 4}
	return []*models.DuplicateGroup{
		{ID: "content-1f", Type: models.GroupExactContent, Similarity: 100, Members: []*models.Document{a, b}, Primary: a},
		{ID: "similar-c.md-d.md", Type: models.GroupSimilarContent, Similarity: 82, Members: []*models.Document{c, d}, Primary: c},
	}
}

func TestWriteGroups_JSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteGroups(&buf, Summary{RunID: "run-1", Documents: 4}, sampleGroups(), OutputJSON)
	if err != nil {
		t.Fatalf("WriteGroups(json): %v", err)
	}
	var decoded struct {
		RunID     string `json:"run_id"`
		Documents int    `json:"documents"`
		Groups    []struct {
			ID      string `json:"id"`
			Primary string `json:"primary"`
			Members []struct {
				Path       string `json:"path"`
				Characters int    `json:"characters"`
			} `json:"members"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.RunID != "run-1" || decoded.Documents != 4 || len(decoded.Groups) != 2 {
		t.Errorf("unexpected output %+v", decoded)
	}
	if decoded.Groups[1].Primary != "c.md" || decoded.Groups[1].Members[0].Characters != 4 {
		t.Errorf("unexpected group %+v", decoded.Groups[1])
	}
	if strings.Contains(buf.String(), "same words here") {
		t.Error("JSON output should not include document content")
	}
}

func TestWriteGroups_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGroups(&buf, Summary{}, sampleGroups(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	want := "exact_content\t100\tnotes/a.md\tnotes/b.md\nsimilar_content\t82\tc.md\td.md\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteGroups_text(t *testing.T) {
	var buf bytes.Buffer
	summary := Summary{Documents: 5, Unreadable: []string{"broken.md"}}
	if err := WriteGroups(&buf, summary, sampleGroups(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Scanned 5 documents (1 unreadable)",
		"Found 2 duplicate groups",
		"[Exact Content] 100% | 2 files | content-1f",
		"* notes/a.md (Words: 3 | Characters: 15)",
		"[Similar Content] 82%",
		"unreadable: broken.md",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteGroups_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteGroups(&buf, Summary{Documents: 2}, nil, OutputText)
	if !strings.Contains(buf.String(), "No duplicate notes found") {
		t.Errorf("got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteComparison(t *testing.T) {
	groups := sampleGroups()
	c := Comparison{A: groups[1].Members[0], B: groups[1].Members[1], Similarity: 27, LengthRatio: 1}

	var buf bytes.Buffer
	if err := WriteComparison(&buf, c, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Similarity: 27% (length ratio 1.00)") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := WriteComparison(&buf, c, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Similarity int `json:"similarity"`
		Documents  []struct {
			Path string `json:"path"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Similarity != 27 || len(decoded.Documents) != 2 || decoded.Documents[1].Path != "d.md" {
		t.Errorf("unexpected %+v", decoded)
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressPrinter(&buf)
	p(models.Progress{Current: 1, Total: 2, Phase: models.PhaseScanning, Message: "scanning: a.md"})
	p(models.Progress{Phase: models.PhaseComparing, Message: "comparing: 50%"})
	p(models.Progress{Phase: models.PhaseDone, Message: "found 0 duplicate groups"})
	out := buf.String()
	if !strings.Contains(out, "[1/2] scanning: a.md") || !strings.HasSuffix(out, "found 0 duplicate groups\n") {
		t.Errorf("got %q", out)
	}
}
