package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func TestDefaultInputFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "a.js"), []byte("let a = 1;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := NewDefaultInputFile(dir, "src/a.js")

	if f.RelativePath() != "src/a.js" {
		t.Errorf("unexpected relative path: %s", f.RelativePath())
	}

	if !filepath.IsAbs(f.Path()) {
		t.Errorf("path must be absolute, got: %s", f.Path())
	}

	content, err := f.Contents()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(content, "let a = 1;\n"); diff != nil {
		t.Error(diff)
	}

	if f.Charset() != Charset || f.IsTest() {
		t.Error("input files are UTF-8 main files")
	}

	if f.URI().Scheme != "file" {
		t.Errorf("unexpected uri: %s", f.URI())
	}

	missing := NewDefaultInputFile(dir, "src/missing.js")
	if _, err := missing.Contents(); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIssueCollector(t *testing.T) {
	var c IssueCollector
	c.Handle(Issue{RuleKey: "javascript:S1116"})
	c.Handle(Issue{RuleKey: "javascript:S1440"})

	var keys []string
	for _, issue := range c.Issues() {
		keys = append(keys, issue.RuleKey)
	}

	if diff := deep.Equal(keys, []string{"javascript:S1116", "javascript:S1440"}); diff != nil {
		t.Error(diff)
	}
}
