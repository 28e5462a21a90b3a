package analyzers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/osfbuildersuite/standalone-linter/analyzers/catalog"
	"github.com/osfbuildersuite/standalone-linter/types"
)

var (
	// ErrPluginNotFound is returned when a configured plugin is not registered.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrParse marks a file the plugin could not parse.
	ErrParse = errors.New("parse error")
)

// Plugin is a language analyzer the engine delegates files to.
type Plugin interface {
	Key() string
	Name() string
	// Languages returns the file extensions handled by the plugin, including the dot.
	Languages() []string
	// Load prepares the plugin (rule catalog, grammar). It is called once per engine.
	Load() error
	Rules() catalog.RuleMetas
	Analyze(ctx context.Context, fc *FileContext) error
}

// FileContext is everything a plugin needs to analyze one file.
type FileContext struct {
	File    types.InputFile
	Content []byte
	Log     types.LogOutput

	active func(ruleKey string) bool
	report func(types.Issue)
}

// Active reports whether the rule should be evaluated.
func (fc *FileContext) Active(ruleKey string) bool {
	if fc.active == nil {
		return true
	}
	return fc.active(ruleKey)
}

// Report raises an issue for the file. The input file is filled in when missing.
func (fc *FileContext) Report(issue types.Issue) {
	if issue.InputFile == nil {
		issue.InputFile = fc.File
	}
	if fc.report != nil {
		fc.report(issue)
	}
}

var (
	pluginsMu sync.RWMutex
	plugins   = make(map[string]Plugin)
)

// RegisterPlugin makes a plugin available by its key. It panics if the key is
// registered twice.
func RegisterPlugin(p Plugin) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()

	if p == nil {
		panic("analyzers: RegisterPlugin plugin is nil")
	}
	if _, dup := plugins[p.Key()]; dup {
		panic("analyzers: RegisterPlugin called twice for plugin " + p.Key())
	}
	plugins[p.Key()] = p
}

// LookupPlugin returns the plugin registered under key.
func LookupPlugin(key string) (Plugin, error) {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()

	p, ok := plugins[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, key)
	}
	return p, nil
}

// Plugins returns the keys of all registered plugins, sorted.
func Plugins() []string {
	pluginsMu.RLock()
	defer pluginsMu.RUnlock()

	keys := make([]string, 0, len(plugins))
	for key := range plugins {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
