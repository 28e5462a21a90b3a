// Package report turns analysis results into the JSON error report and writes
// it below the workspace.
package report

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/osfbuildersuite/standalone-linter/types"
)

var (
	// ErrOutsideWorkspace is returned when the report path escapes the workspace.
	ErrOutsideWorkspace = errors.New("report path is outside the workspace")
	// ErrCreateDir is returned when the report directory cannot be created.
	ErrCreateDir = errors.New("failed to create report directory")
	// ErrReportExists is returned instead of overwriting an existing report.
	ErrReportExists = errors.New("report file already exists")
)

// PathError records a report error and the path it happened on. Its message
// is the one printed to the build log.
type PathError struct {
	Err  error
	Path string
}

func (e *PathError) Error() string {
	switch e.Err {
	case ErrOutsideWorkspace:
		return `Invalid value for "Report Path"! The path needs to be inside the workspace!`
	case ErrCreateDir:
		return fmt.Sprintf("Failed to create %s!", e.Path)
	case ErrReportExists:
		return fmt.Sprintf("reportFile=%s already exists!", e.Path)
	default:
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
}

func (e *PathError) Unwrap() error {
	return e.Err
}

var rspecExp = regexp.MustCompile(`(?i)^javascript:S(?P<rspec>[0-9]+)$`)

// Entry is one error of the report.
type Entry struct {
	Path        string `json:"path"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Message     string `json:"message"`
}

// RuleSpecURL returns the rule description page for JavaScript rules, or "".
func RuleSpecURL(ruleKey string) string {
	match := rspecExp.FindStringSubmatch(ruleKey)
	if match == nil {
		return ""
	}
	return fmt.Sprintf("https://rules.sonarsource.com/javascript/RSPEC-%s", match[rspecExp.SubexpIndex("rspec")])
}

// FromIssue converts an issue. Issues without an input file are not reportable.
func FromIssue(issue types.Issue) (Entry, bool) {
	if issue.InputFile == nil {
		return Entry{}, false
	}

	lines := []string{
		fmt.Sprintf("[%s/%s/%s] %s", issue.Severity, issue.Type, issue.RuleKey, issue.RuleName),
		issue.Message,
	}
	if url := RuleSpecURL(issue.RuleKey); url != "" {
		lines = append(lines, url)
	}

	return Entry{
		Path:        issue.InputFile.RelativePath(),
		StartLine:   issue.StartLine,
		StartColumn: issue.StartLineOffset,
		EndLine:     issue.EndLine,
		EndColumn:   issue.EndLineOffset,
		Message:     strings.Join(lines, "\n"),
	}, true
}

// FromFailedFile converts a file that could not be parsed.
func FromFailedFile(file types.InputFile) Entry {
	return Entry{
		Path:    file.RelativePath(),
		Message: "Failed to parse!",
	}
}

// Writer writes reports below Workspace.
type Writer struct {
	Workspace string
	// NewName returns the report file name. Defaults to UniqueName.
	NewName func() string
}

// UniqueName returns "SonarLint_<hex>.json", hex being the unsigned hex form
// of the most significant 64 bits of a random UUID.
func UniqueName() string {
	id := uuid.New()
	return fmt.Sprintf("SonarLint_%s.json", strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 16))
}

// Write creates the report directory when needed and writes entries to a new
// file in it. It returns the absolute path of the report.
func (w Writer) Write(reportPath string, entries []Entry) (string, error) {
	workspace, err := filepath.Abs(w.Workspace)
	if err != nil {
		return "", err
	}

	// reject anything escaping the workspace before touching the disk
	reportDir := filepath.Join(workspace, reportPath)
	rel, err := filepath.Rel(workspace, reportDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathError{Err: ErrOutsideWorkspace, Path: reportDir}
	}

	if _, err := os.Stat(reportDir); err != nil {
		if err := os.MkdirAll(reportDir, 0755); err != nil {
			return "", &PathError{Err: ErrCreateDir, Path: reportDir}
		}
	}

	newName := w.NewName
	if newName == nil {
		newName = UniqueName
	}
	reportFile := filepath.Join(reportDir, newName())

	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(reportFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", &PathError{Err: ErrReportExists, Path: reportFile}
		}
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return reportFile, nil
}
