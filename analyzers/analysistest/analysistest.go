package analysistest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/osfbuildersuite/standalone-linter/analyzers"
	"github.com/osfbuildersuite/standalone-linter/analyzers/catalog"
	"github.com/osfbuildersuite/standalone-linter/types"
)

// raiseExp matches the annotation prefix of a comment, e.g. "// raise: S1116, S3504".
var raiseExp = regexp.MustCompile(`.+ raise: `)

// ParsedIssue represents an issue expected by an annotation, or raised by the engine.
type ParsedIssue struct {
	Path      string
	IssueCode string
	Line      int
}

type ParsedIssues []ParsedIssue

// Run analyzes every file under directory with the given plugins and verifies
// the raised issues match the "raise:" annotations found in the files.
func Run(directory string, plugins ...string) error {
	files, err := getFilenames(directory)
	if err != nil {
		return err
	}

	var inputs []types.InputFile
	for _, f := range files {
		inputs = append(inputs, types.NewDefaultInputFile(directory, f))
	}

	engine, err := analyzers.NewStandaloneEngine(analyzers.GlobalConfiguration{Plugins: plugins})
	if err != nil {
		return err
	}
	defer engine.Stop()

	var collector types.IssueCollector
	results, err := engine.Analyze(context.Background(), analyzers.AnalysisConfiguration{
		BaseDir:    directory,
		WorkDir:    directory,
		InputFiles: inputs,
	}, &collector)
	if err != nil {
		return err
	}

	if len(results.FailedFiles) != 0 {
		return fmt.Errorf("failed to analyze %s", results.FailedFiles[0].RelativePath())
	}

	var raised ParsedIssues
	for _, issue := range collector.Issues() {
		path := ""
		if issue.InputFile != nil {
			path = issue.InputFile.RelativePath()
		}
		raised = append(raised, ParsedIssue{Path: path, IssueCode: catalog.ShortKey(issue.RuleKey), Line: issue.StartLine})
	}

	var expected ParsedIssues
	for _, f := range files {
		annotations, err := parseAnnotations(directory, f)
		if err != nil {
			return err
		}
		expected = append(expected, annotations...)
	}

	return compareReport(expected, raised)
}

// getFilenames returns the slash-separated paths of the files below directory, relative to it.
func getFilenames(directory string) ([]string, error) {
	var files []string

	// check if directory exists before walking
	if _, err := os.Stat(directory); err != nil {
		return nil, err
	}

	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			rel, err := filepath.Rel(directory, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// parseAnnotations reads the "raise:" annotations of a file using tree-sitter.
func parseAnnotations(directory, filename string) (ParsedIssues, error) {
	lang, err := getLanguage(filename)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(directory, filepath.FromSlash(filename)))
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	// create a query for fetching comments
	query, err := sitter.NewQuery([]byte("(comment) @comment"), lang)
	if err != nil {
		return nil, err
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var issues ParsedIssues
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}

		for _, c := range m.Captures {
			node := c.Node
			nodeContent := strings.TrimSpace(strings.TrimSuffix(node.Content(content), "*/"))

			if !raiseExp.MatchString(nodeContent) {
				continue
			}

			substrings := raiseExp.Split(nodeContent, 2)
			if len(substrings) < 2 {
				continue
			}

			for _, code := range strings.Split(substrings[1], ",") {
				code = strings.TrimSpace(code)
				if code == "" {
					continue
				}
				issues = append(issues, ParsedIssue{Path: filename, IssueCode: code, Line: int(node.StartPoint().Row) + 1})
			}
		}
	}

	return issues, nil
}

// getLanguage is a helper for fetching a tree-sitter language based on the file's extension.
func getLanguage(filename string) (*sitter.Language, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage(), nil
	default:
		return nil, errors.New("language not supported")
	}
}

// compareReport checks that the expected and the raised issues are identical, regardless of order.
func compareReport(expected, raised ParsedIssues) error {
	expected.sort()
	raised.sort()

	if diff := cmp.Diff(expected, raised); diff != "" {
		return fmt.Errorf("mismatch between expected and raised issues (-expected +raised):\n%s", diff)
	}

	return nil
}

func (p ParsedIssues) sort() {
	sort.Slice(p, func(i, j int) bool {
		if p[i].Path != p[j].Path {
			return p[i].Path < p[j].Path
		}
		if p[i].Line != p[j].Line {
			return p[i].Line < p[j].Line
		}
		return p[i].IssueCode < p[j].IssueCode
	})
}
