package javascript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"

	"github.com/osfbuildersuite/standalone-linter/analyzers"
	"github.com/osfbuildersuite/standalone-linter/analyzers/analysistest"
	"github.com/osfbuildersuite/standalone-linter/types"
)

func TestRules(t *testing.T) {
	tests := []struct {
		description string
		directory   string
	}{
		{description: "noncompliant sources must raise annotated issues", directory: "testdata/src/rules"},
		{description: "compliant sources must raise nothing", directory: "testdata/src/clean"},
	}

	for _, tc := range tests {
		if err := analysistest.Run(tc.directory, PluginKey); err != nil {
			t.Errorf("description: %s, %v", tc.description, err)
		}
	}
}

func TestLoad(t *testing.T) {
	p := New()
	if err := p.Load(); err != nil {
		t.Fatal(err)
	}

	// every registered rule has catalog metadata
	if len(p.Rules()) != len(p.rules) {
		t.Errorf("expected %d catalog entries, got %d", len(p.rules), len(p.Rules()))
	}

	p = New()
	p.RegisterRule("javascript:S0000", EmptyStatement)
	if err := p.Load(); err == nil {
		t.Error("expected an error for a rule without catalog entry")
	}
}

// analyze runs the registered plugin over a single source and returns the issues and failed files.
func analyze(t *testing.T, source string, excluded ...string) ([]types.Issue, []types.InputFile) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.js"), []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	engine, err := analyzers.NewStandaloneEngine(analyzers.GlobalConfiguration{Plugins: []string{PluginKey}})
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Stop()

	var collector types.IssueCollector
	results, err := engine.Analyze(context.Background(), analyzers.AnalysisConfiguration{
		BaseDir:       dir,
		WorkDir:       dir,
		InputFiles:    []types.InputFile{types.NewDefaultInputFile(dir, "b.js")},
		ExcludedRules: excluded,
	}, &collector)
	if err != nil {
		t.Fatal(err)
	}

	return collector.Issues(), results.FailedFiles
}

func TestIssueLocation(t *testing.T) {
	issues, failed := analyze(t, "const x = 1;\nconst y = x + 1;\ndebugger;\n")
	if len(failed) != 0 {
		t.Fatalf("unexpected parse failure")
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}

	issue := issues[0]
	issue.InputFile = nil

	want := types.Issue{
		Severity:        types.SeverityMajor,
		Type:            types.TypeVulnerability,
		RuleKey:         "javascript:S1525",
		RuleName:        "Debugger statements should not be used",
		Message:         "Remove this debugger statement.",
		StartLine:       3,
		StartLineOffset: 0,
		EndLine:         3,
		EndLineOffset:   8,
	}

	if diff := deep.Equal(issue, want); diff != nil {
		t.Error(diff)
	}
}

func TestParseFailure(t *testing.T) {
	issues, failed := analyze(t, "function broken( {\n")

	if len(issues) != 0 {
		t.Errorf("a file that does not parse must not raise issues, got %d", len(issues))
	}
	if len(failed) != 1 || failed[0].RelativePath() != "b.js" {
		t.Errorf("expected b.js to fail, got %v", failed)
	}
}

func TestExcludedRules(t *testing.T) {
	issues, _ := analyze(t, "var a = 1;;\n", "S3504")

	if len(issues) != 1 || issues[0].RuleKey != "javascript:S1116" {
		t.Errorf("expected only S1116, got %+v", issues)
	}
}

func TestAnalyzeUnloaded(t *testing.T) {
	p := New()
	err := p.Analyze(context.Background(), &analyzers.FileContext{})
	if err == nil || errors.Is(err, analyzers.ErrParse) {
		t.Errorf("expected a load error, got %v", err)
	}
}

func TestStrictEqualityMessage(t *testing.T) {
	issues, _ := analyze(t, "if (a != b) {}\n")

	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if diff := deep.Equal(issues[0].Message, `Replace "!=" with "!==".`); diff != nil {
		t.Error(diff)
	}
	if issues[0].StartLineOffset != 6 || issues[0].EndLineOffset != 8 {
		t.Errorf("issue must be located on the operator, got %d-%d", issues[0].StartLineOffset, issues[0].EndLineOffset)
	}
}
