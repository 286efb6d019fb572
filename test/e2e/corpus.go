// Package e2e provides end-to-end tests that run detection over a generated vault on disk.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/futago/internal/models"
)

// VaultFile is one file of the generated vault. Text is the note text; for binary formats
// the file bytes are produced by WriteMinimalFile.
type VaultFile struct {
	Path string
	Text string
}

// ExpectedGroup is a duplicate group the detector must report.
type ExpectedGroup struct {
	Type    models.GroupType
	Members []string // sorted vault-relative paths
}

// Corpus is a vault with planted duplicates and the groups they must produce.
type Corpus struct {
	Files    []VaultFile
	Expected []ExpectedGroup
	// Documents is the number of files that pass exclusion and the length filter.
	Documents int
	Excluded  int
	TooShort  int
}

// Extensions lists the file types the corpus uses.
var Extensions = []string{".md", ".docx", ".xlsx"}

var topics = []struct {
	title   string
	content string
}{
	{"Python Guide", "Python is a high-level programming language. Python programming language is used for web development and data science."},
	{"Kubernetes Docs", "Kubernetes is an open-source container orchestration platform. Kubernetes container orchestration automates deployment and scaling."},
	{"React Tutorial", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"Go Language", "Go is a statically typed language. Go golang concurrency is achieved with goroutines and channels."},
	{"PostgreSQL Manual", "PostgreSQL is an advanced relational database. PostgreSQL relational database supports JSON and full-text search."},
	{"Docker Handbook", "Docker enables building and shipping applications. Docker container images are portable across environments."},
	{"Machine Learning", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from data."},
	{"REST API Design", "REST is an architectural style for APIs. REST API endpoints use HTTP methods and status codes."},
	{"Redis Cache", "Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching."},
	{"Terraform IaC", "Terraform manages cloud infrastructure. Terraform infrastructure as code is declarative."},
	{"Prometheus Metrics", "Prometheus is a monitoring system. Prometheus monitoring metrics are time-series based."},
	{"Git Workflow", "Git is a distributed version control system. Git version control tracks changes in source code."},
	{"Kafka Streams", "Apache Kafka is a distributed event stream platform. Apache Kafka streaming handles high throughput."},
	{"Event Sourcing", "Event sourcing stores state as events. Event sourcing CQRS separates read and write models."},
	{"Unit Testing", "Unit tests verify small units of code. Unit testing mock isolates dependencies."},
	{"Rate Limiting", "Rate limiting protects APIs. Rate limiting throttling can be per-user or global."},
	{"Circuit Breaker", "Circuit breaker stops cascading failures. Circuit breaker resilience pattern fails fast."},
	{"Password Hashing", "Passwords must be hashed. Password hashing bcrypt is resistant to rainbow tables."},
	{"Backup Strategy", "Backups protect against data loss. Backup strategy recovery includes RTO and RPO."},
	{"CAP Theorem", "CAP says you cannot have all three. CAP theorem consistency availability partition tolerance."},
	{"Graceful Shutdown", "Graceful shutdown drains connections. Graceful shutdown signal handles SIGTERM."},
	{"Canary Release", "Canary rolls out to a subset. Canary release gradual reduces blast radius."},
	{"Fuzz Testing", "Fuzz testing uses random input. Fuzz testing random finds edge cases."},
	{"苹果手机评测", "苹果手机的电池续航表现很好，拍照效果也非常出色，适合日常使用和旅行记录。屏幕显示清晰细腻，系统运行流畅稳定，整体体验令人满意。"},
}

// nearDuplicateWords is long enough that changing one word keeps the pair above the default threshold.
var nearDuplicateWords = strings.Fields(
	"harbor lantern meadow orchard pebble quartz ribbon saddle thistle umbrella " +
		"velvet walnut yonder zephyr anchor bramble cinder dapple ember falcon")

// Slug turns a title into a file name stem.
func Slug(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// BuildCorpus returns the vault files and the groups detection must find in them with default settings.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	add := func(path, text string) { c.Files = append(c.Files, VaultFile{Path: path, Text: text}) }

	for _, t := range topics {
		add(Slug(t.title)+".md", "# "+t.title+"\n\n"+t.content)
	}
	c.Documents = len(topics)

	python := "# Python Guide\n\n" + topics[0].content
	add("inbox/python-guide copy.md", python)
	c.Documents++
	c.Expected = append(c.Expected, ExpectedGroup{
		Type:    models.GroupExactContent,
		Members: []string{"inbox/python-guide copy.md", "python-guide.md"},
	})

	budget := "Budget plan for the garden shed: lumber, roofing felt, hinges and two coats of paint."
	add("budget.xlsx", budget)
	add("notes/budget plan.md", budget)
	c.Documents += 2
	c.Expected = append(c.Expected, ExpectedGroup{
		Type:    models.GroupExactContent,
		Members: []string{"budget.xlsx", "notes/budget plan.md"},
	})

	add("archive/docker-handbook.md", "Old notes about the harbor: cranes, cargo manifests and the night shift schedule.")
	c.Documents++
	c.Expected = append(c.Expected, ExpectedGroup{
		Type:    models.GroupExactTitle,
		Members: []string{"archive/docker-handbook.md", "docker-handbook.md"},
	})

	base := strings.Join(nearDuplicateWords, " ")
	edited := append(append([]string(nil), nearDuplicateWords[:len(nearDuplicateWords)-1]...), "glacier")
	add("drafts/word list.md", base)
	add("word list final.md", strings.Join(edited, " "))
	c.Documents += 2
	c.Expected = append(c.Expected, ExpectedGroup{
		Type:    models.GroupSimilarContent,
		Members: []string{"drafts/word list.md", "word list final.md"},
	})

	report := "Quarterly summary: revenue grew in every region while support tickets fell by a third."
	add("reports/quarterly.docx", report)
	add("quarterly summary.md", report)
	c.Documents += 2
	c.Expected = append(c.Expected, ExpectedGroup{
		Type:    models.GroupExactContent,
		Members: []string{"quarterly summary.md", "reports/quarterly.docx"},
	})

	add("templates/python-guide.md", python)
	add(".obsidian/workspace.md", python)
	c.Excluded = 2

	add("stub.md", "todo")
	c.TooShort = 1
	return c
}

// Write creates the corpus files under dir.
func (c *Corpus) Write(dir string) error {
	for _, f := range c.Files {
		data, err := WriteMinimalFile(filepath.Ext(f.Path), f.Text)
		if err != nil {
			return fmt.Errorf("build %s: %w", f.Path, err)
		}
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// MemberPaths returns the sorted member paths of g.
func MemberPaths(g *models.DuplicateGroup) []string {
	paths := make([]string, len(g.Members))
	for i, m := range g.Members {
		paths[i] = m.Path
	}
	sort.Strings(paths)
	return paths
}
