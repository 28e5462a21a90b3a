package builder

import (
	"context"
	"io"

	"github.com/osfbuildersuite/standalone-linter/config"
)

// LegacyBuilder is the earlier form of the step: a single pattern and no
// report.
type LegacyBuilder struct {
	SourcePattern   string
	ExcludePatterns []string
	Options
}

func (b *LegacyBuilder) Perform(ctx context.Context, workspace string, out io.Writer) error {
	var patterns []config.SourcePattern
	if b.SourcePattern != "" {
		patterns = append(patterns, config.SourcePattern{
			Pattern:  b.SourcePattern,
			Excludes: b.ExcludePatterns,
		})
	}

	step := &Builder{
		SourcePatterns: patterns,
		Options:        b.Options,
	}
	return step.Perform(ctx, workspace, out)
}
