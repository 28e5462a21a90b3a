package analyzers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/osfbuildersuite/standalone-linter/analyzers/catalog"
	"github.com/osfbuildersuite/standalone-linter/types"
)

// ErrEngineStopped is returned when analyzing with a stopped engine.
var ErrEngineStopped = errors.New("engine is stopped")

// GlobalConfiguration configures an engine for its whole lifetime.
type GlobalConfiguration struct {
	// Plugins are the keys of the plugins to load.
	Plugins   []string
	LogOutput types.LogOutput
}

// AnalysisConfiguration configures a single analysis.
type AnalysisConfiguration struct {
	BaseDir         string
	WorkDir         string
	InputFiles      []types.InputFile
	ExtraProperties map[string]string
	// ExcludedRules are rule keys (full or short) that are not evaluated.
	ExcludedRules []string
}

// StandaloneEngine runs the loaded plugins over input files.
type StandaloneEngine struct {
	plugins   []Plugin
	byExt     map[string]Plugin
	logOutput types.LogOutput
	stopped   bool
}

// NewStandaloneEngine loads the configured plugins. Loading errors are fatal.
func NewStandaloneEngine(cfg GlobalConfiguration) (*StandaloneEngine, error) {
	if len(cfg.Plugins) == 0 {
		return nil, errors.New("no plugins configured")
	}

	e := &StandaloneEngine{
		byExt:     make(map[string]Plugin),
		logOutput: cfg.LogOutput,
	}

	for _, key := range cfg.Plugins {
		p, err := LookupPlugin(key)
		if err != nil {
			return nil, err
		}

		if err := p.Load(); err != nil {
			return nil, fmt.Errorf("failed to load plugin %s: %w", key, err)
		}

		e.plugins = append(e.plugins, p)
		for _, ext := range p.Languages() {
			// first plugin wins for an extension
			if _, ok := e.byExt[ext]; !ok {
				e.byExt[ext] = p
			}
		}

		e.log(fmt.Sprintf("Plugin loaded: %s (%d rules)", p.Name(), len(p.Rules())), types.LevelDebug)
	}

	return e, nil
}

// Rules returns the rules of every loaded plugin.
func (e *StandaloneEngine) Rules() catalog.RuleMetas {
	var rules catalog.RuleMetas
	for _, p := range e.plugins {
		rules = append(rules, p.Rules()...)
	}
	return rules
}

// Analyze runs the plugins over the input files and hands issues to listener.
// Files that cannot be read or parsed are returned in the results; they are
// not an error.
func (e *StandaloneEngine) Analyze(ctx context.Context, cfg AnalysisConfiguration, listener types.IssueListener) (types.AnalysisResults, error) {
	var results types.AnalysisResults

	if e.stopped {
		return results, ErrEngineStopped
	}

	excluded := make(map[string]bool, len(cfg.ExcludedRules))
	for _, key := range cfg.ExcludedRules {
		excluded[key] = true
	}
	active := func(ruleKey string) bool {
		return !excluded[ruleKey] && !excluded[catalog.ShortKey(ruleKey)]
	}

	e.log(fmt.Sprintf("Base dir: %s", cfg.BaseDir), types.LevelDebug)

	for _, file := range cfg.InputFiles {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		p := e.pluginFor(file.RelativePath())
		if p == nil {
			e.log(fmt.Sprintf("No plugin for %s, skipping", file.RelativePath()), types.LevelDebug)
			continue
		}
		results.IndexedFiles++

		content, err := file.Contents()
		if err != nil {
			e.log(fmt.Sprintf("Unable to read file %s: %v", file.RelativePath(), err), types.LevelError)
			results.FailedFiles = append(results.FailedFiles, file)
			continue
		}

		fc := &FileContext{
			File:    file,
			Content: []byte(content),
			Log:     e,
			active:  active,
			report:  listener.Handle,
		}

		if err := p.Analyze(ctx, fc); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}

			if errors.Is(err, ErrParse) {
				e.log(fmt.Sprintf("Unable to parse file: %s", file.RelativePath()), types.LevelError)
			}
			e.log(err.Error(), types.LevelError)
			results.FailedFiles = append(results.FailedFiles, file)
		}
	}

	e.log(fmt.Sprintf("%d files indexed", results.IndexedFiles), types.LevelInfo)

	return results, nil
}

// Stop releases the engine. It is safe to call more than once.
func (e *StandaloneEngine) Stop() {
	e.stopped = true
	e.plugins = nil
	e.byExt = nil
}

// Log implements types.LogOutput so plugins log through the engine.
func (e *StandaloneEngine) Log(message string, level types.Level) {
	e.log(message, level)
}

func (e *StandaloneEngine) log(message string, level types.Level) {
	if e.logOutput != nil {
		e.logOutput.Log(message, level)
	}
}

func (e *StandaloneEngine) pluginFor(path string) Plugin {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}
	return e.byExt[ext]
}
