// Package builder implements the linting build step: it expands the source
// patterns, runs the analysis engine over the matched files, prints the
// findings to the build log and optionally writes them to a JSON report.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/osfbuildersuite/standalone-linter/analyzers"
	"github.com/osfbuildersuite/standalone-linter/config"
	"github.com/osfbuildersuite/standalone-linter/plugins/javascript"
	"github.com/osfbuildersuite/standalone-linter/report"
	"github.com/osfbuildersuite/standalone-linter/scanner"
	"github.com/osfbuildersuite/standalone-linter/types"
)

const (
	DisplayName = "OSF Builder Suite :: Standalone Sonar Linter"
	Symbol      = "osfBuilderSuiteStandaloneSonarLinter"
)

// indent prefixes the detail lines printed below an issue.
const indent = "           "

// Step is a build step run inside a workspace.
type Step interface {
	Perform(ctx context.Context, workspace string, out io.Writer) error
}

// AbortError fails the build. Message is printed as is.
type AbortError struct {
	Message string
	Err     error
}

func (e *AbortError) Error() string {
	return e.Message
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func abort(err error) error {
	return &AbortError{Message: err.Error(), Err: err}
}

// Options tune a step beyond its build configuration.
type Options struct {
	// Logger receives diagnostics. The zero value discards them.
	Logger zerolog.Logger
	// ReportName overrides the report file name, mostly for tests.
	ReportName func() string
	// ExcludedRules are rule keys that are not evaluated.
	ExcludedRules []string
}

// Builder lints every source pattern and, when ReportPath is set, writes the
// errors found to a report below it.
type Builder struct {
	SourcePatterns []config.SourcePattern
	ReportPath     string
	Options
}

// FromConfig returns the step described by cfg.
func FromConfig(cfg *config.Config, opts Options) Step {
	opts.ExcludedRules = append(opts.ExcludedRules, cfg.ExcludedRules...)

	if cfg.IsLegacy() {
		return &LegacyBuilder{
			SourcePattern:   cfg.SourcePattern,
			ExcludePatterns: cfg.ExcludePatterns,
			Options:         opts,
		}
	}

	return &Builder{
		SourcePatterns: cfg.SourcePatterns,
		ReportPath:     cfg.ReportPath,
		Options:        opts,
	}
}

func (b *Builder) Perform(ctx context.Context, workspace string, out io.Writer) error {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "--[B: %s]--\n", DisplayName)

	if err := b.lint(ctx, workspace, out); err != nil {
		return err
	}

	fmt.Fprintf(out, "--[E: %s]--\n", DisplayName)
	fmt.Fprintln(out)

	return nil
}

func (b *Builder) lint(ctx context.Context, workspace string, out io.Writer) error {
	if len(b.SourcePatterns) == 0 {
		return &AbortError{Message: `No "Source Pattern" defined!`}
	}

	dir, err := filepath.Abs(workspace)
	if err != nil {
		return abort(err)
	}

	entries := make([]report.Entry, 0)

	for _, sp := range b.SourcePatterns {
		fmt.Fprintf(out, "[+] Linting \"%s\"\n", sp.Pattern)

		found, err := b.lintPattern(ctx, dir, sp, out)
		if err != nil {
			return err
		}
		entries = append(entries, found...)

		fmt.Fprintln(out, " + Done")
		fmt.Fprintln(out)
	}

	if b.ReportPath != "" {
		w := report.Writer{Workspace: dir, NewName: b.ReportName}
		reportFile, err := w.Write(b.ReportPath, entries)
		if err != nil {
			return abort(err)
		}
		b.Logger.Info().Str("report", reportFile).Int("errors", len(entries)).Msg("Report written")
	}

	if len(entries) > 0 {
		return &AbortError{Message: "SonarLint FAILED!"}
	}

	return nil
}

// lintPattern analyzes the files matching sp with a fresh engine and returns
// the report entries for them.
func (b *Builder) lintPattern(ctx context.Context, dir string, sp config.SourcePattern, out io.Writer) ([]report.Entry, error) {
	paths, err := scanner.Scan(dir, sp.Pattern, sp.Excludes)
	if err != nil {
		return nil, abort(err)
	}

	if len(paths) == 0 {
		// nothing to lint is not an error
		b.Logger.Warn().Str("pattern", sp.Pattern).Msg("Source pattern matched no files")
	}

	inputFiles := make([]types.InputFile, 0, len(paths))
	for _, path := range paths {
		inputFiles = append(inputFiles, types.NewDefaultInputFile(dir, path))
	}

	engine, err := analyzers.NewStandaloneEngine(analyzers.GlobalConfiguration{
		Plugins:   []string{javascript.PluginKey},
		LogOutput: b.logOutput(out),
	})
	if err != nil {
		return nil, &AbortError{Message: "Error loading JavaScript Sonar plugin!", Err: err}
	}
	defer engine.Stop()

	collector := &types.IssueCollector{}
	results, err := engine.Analyze(ctx, analyzers.AnalysisConfiguration{
		BaseDir:         dir,
		WorkDir:         dir,
		InputFiles:      inputFiles,
		ExtraProperties: map[string]string{},
		ExcludedRules:   b.ExcludedRules,
	}, collector)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, abort(err)
	}

	b.Logger.Debug().
		Str("pattern", sp.Pattern).
		Int("matched", len(paths)).
		Int("indexed", results.IndexedFiles).
		Int("failed", len(results.FailedFiles)).
		Int("issues", len(collector.Issues())).
		Msg("Pattern analyzed")

	var entries []report.Entry

	for _, file := range results.FailedFiles {
		fmt.Fprintf(out, " ~ ERROR parsing %s\n", file.RelativePath())
		entries = append(entries, report.FromFailedFile(file))
	}

	for _, issue := range collector.Issues() {
		printIssue(out, issue)

		if entry, ok := report.FromIssue(issue); ok {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func printIssue(out io.Writer, issue types.Issue) {
	path := "UNKNOWN"
	if issue.InputFile != nil {
		path = issue.InputFile.RelativePath()
	}

	fmt.Fprintf(out, " ~ ERROR parsing %s@%d,%d-%d,%d [%s/%s/%s]\n",
		path,
		issue.StartLine,
		issue.StartLineOffset,
		issue.EndLine,
		issue.EndLineOffset,
		issue.Severity,
		issue.Type,
		issue.RuleKey,
	)
	fmt.Fprintf(out, "%s%s\n", indent, issue.RuleName)
	fmt.Fprintf(out, "%s%s\n", indent, issue.Message)

	if url := report.RuleSpecURL(issue.RuleKey); url != "" {
		fmt.Fprintf(out, "%s%s\n", indent, url)
	}
}

// logOutput prints engine errors to the build log and forwards every message
// to the diagnostics logger.
func (b *Builder) logOutput(out io.Writer) types.LogOutput {
	return types.LogOutputFunc(func(message string, level types.Level) {
		if level == types.LevelError {
			fmt.Fprintln(out, message)
		}
		b.Logger.WithLevel(zerologLevel(level)).Str("source", "engine").Msg(message)
	})
}

func zerologLevel(level types.Level) zerolog.Level {
	switch level {
	case types.LevelTrace:
		return zerolog.TraceLevel
	case types.LevelDebug:
		return zerolog.DebugLevel
	case types.LevelInfo:
		return zerolog.InfoLevel
	case types.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
