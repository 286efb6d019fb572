// Package cli renders detection results and progress for the futago command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/futago/internal/models"
	"github.com/hyperjump/futago/pkg/utils"
)

// OutputFormat is the format for group output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per group.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// TypeLabel returns the display name of a group type.
func TypeLabel(t models.GroupType) string {
	switch t {
	case models.GroupExactContent:
		return "Exact Content"
	case models.GroupExactTitle:
		return "Exact Title"
	case models.GroupSimilarContent:
		return "Similar Content"
	default:
		return string(t)
	}
}

// Summary is the run information printed with the groups.
type Summary struct {
	RunID      string   `json:"run_id,omitempty"`
	Documents  int      `json:"documents"`
	Unreadable []string `json:"unreadable,omitempty"`
}

type memberView struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	WordCount   int    `json:"word_count"`
	Characters  int    `json:"characters"`
	Fingerprint string `json:"fingerprint"`
}

type groupView struct {
	ID         string           `json:"id"`
	Type       models.GroupType `json:"type"`
	Similarity int              `json:"similarity"`
	Primary    string           `json:"primary"`
	Members    []memberView     `json:"members"`
}

type reportView struct {
	Summary
	Groups []groupView `json:"groups"`
}

func viewGroups(groups []*models.DuplicateGroup) []groupView {
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		v := groupView{ID: g.ID, Type: g.Type, Similarity: g.Similarity}
		if g.Primary != nil {
			v.Primary = g.Primary.Path
		}
		for _, m := range g.Members {
			v.Members = append(v.Members, viewMember(m))
		}
		out = append(out, v)
	}
	return out
}

func viewMember(m *models.Document) memberView {
	return memberView{
		Path:        m.Path,
		Title:       m.Title,
		WordCount:   m.WordCount,
		Characters:  utf8.RuneCountInString(m.Content),
		Fingerprint: m.Fingerprint,
	}
}

// WriteGroups writes groups to w in the given format. Document content is omitted from JSON output.
func WriteGroups(w io.Writer, summary Summary, groups []*models.DuplicateGroup, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reportView{Summary: summary, Groups: viewGroups(groups)})
	case OutputCompact:
		for _, g := range groups {
			paths := make([]string, len(g.Members))
			for i, m := range g.Members {
				paths[i] = m.Path
			}
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", g.Type, g.Similarity, strings.Join(paths, "\t")); err != nil {
				return err
			}
		}
		return nil
	default:
		writeGroupsText(w, summary, groups)
		return nil
	}
}

func writeGroupsText(w io.Writer, summary Summary, groups []*models.DuplicateGroup) {
	fmt.Fprintf(w, "\nScanned %d documents", summary.Documents)
	if n := len(summary.Unreadable); n > 0 {
		fmt.Fprintf(w, " (%d unreadable)", n)
	}
	fmt.Fprintln(w)
	if len(groups) == 0 {
		fmt.Fprintln(w, "No duplicate notes found")
		return
	}
	fmt.Fprintf(w, "Found %d duplicate groups\n\n", len(groups))
	for _, g := range groups {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] %d%% | %d files | %s\n", TypeLabel(g.Type), g.Similarity, len(g.Members), g.ID)
		for _, m := range g.Members {
			marker := " "
			if g.Primary != nil && m.Path == g.Primary.Path {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s (Words: %d | Characters: %d)\n",
				marker, m.Path, m.WordCount, utf8.RuneCountInString(m.Content))
		}
		if g.Primary != nil {
			fmt.Fprintf(w, "    %s\n", utils.Excerpt(g.Primary.Content, 100))
		}
		fmt.Fprintln(w)
	}
	for _, p := range summary.Unreadable {
		fmt.Fprintf(w, "unreadable: %s\n", p)
	}
}

// Comparison is the result of comparing two documents.
type Comparison struct {
	A           *models.Document `json:"-"`
	B           *models.Document `json:"-"`
	Similarity  int              `json:"similarity"`
	LengthRatio float64          `json:"length_ratio"`
}

// WriteComparison writes a side-by-side summary of two documents.
func WriteComparison(w io.Writer, c Comparison, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Comparison
			Documents []memberView `json:"documents"`
		}{c, []memberView{viewMember(c.A), viewMember(c.B)}})
	}
	for _, d := range []*models.Document{c.A, c.B} {
		fmt.Fprintf(w, "%s\n  Words: %d | Characters: %d | Fingerprint: %s\n",
			d.Path, d.WordCount, utf8.RuneCountInString(d.Content), d.Fingerprint)
	}
	fmt.Fprintf(w, "Similarity: %d%% (length ratio %.2f)\n", c.Similarity, c.LengthRatio)
	return nil
}
