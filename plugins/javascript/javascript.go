// Package javascript is the JavaScript analyzer plugin. Sources are parsed
// with the tree-sitter JavaScript grammar and rules are evaluated on every
// node of the syntax tree.
package javascript

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	jsgrammar "github.com/smacker/go-tree-sitter/javascript"

	"github.com/osfbuildersuite/standalone-linter/analyzers"
	"github.com/osfbuildersuite/standalone-linter/analyzers/catalog"
	"github.com/osfbuildersuite/standalone-linter/types"
)

// PluginKey is the key the plugin is registered under.
const PluginKey = "javascript"

//go:embed rules.toml
var rulesTOML []byte

// RuleFunc defines the signature of a rule for the JavaScript plugin.
type RuleFunc func(n *sitter.Node, content []byte) ([]types.Diagnostic, error)

type registeredRule struct {
	key  string
	rule RuleFunc
}

type Plugin struct {
	rules []registeredRule

	once    sync.Once
	loadErr error
	catalog catalog.RuleMetas
	meta    map[string]catalog.RuleMeta
}

func init() {
	analyzers.RegisterPlugin(New())
}

// New returns a plugin with every built-in rule registered.
func New() *Plugin {
	p := &Plugin{}
	p.RegisterRule("javascript:S1116", EmptyStatement)
	p.RegisterRule("javascript:S1135", TodoTag)
	p.RegisterRule("javascript:S1440", StrictEquality)
	p.RegisterRule("javascript:S1523", Eval)
	p.RegisterRule("javascript:S1525", DebuggerStatement)
	p.RegisterRule("javascript:S2228", ConsoleLogging)
	p.RegisterRule("javascript:S3504", VarDeclaration)
	return p
}

// RegisterRule registers a rule under its key. The key must be present in the catalog.
func (p *Plugin) RegisterRule(key string, rule RuleFunc) {
	p.rules = append(p.rules, registeredRule{key: key, rule: rule})
}

func (*Plugin) Key() string {
	return PluginKey
}

func (*Plugin) Name() string {
	return "JavaScript"
}

func (*Plugin) Languages() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs"}
}

// Load reads the embedded rule catalog and checks every registered rule has metadata.
func (p *Plugin) Load() error {
	p.once.Do(func() {
		rules, err := catalog.FetchRules(bytes.NewReader(rulesTOML))
		if err != nil {
			p.loadErr = fmt.Errorf("error loading JavaScript rules: %w", err)
			return
		}

		meta := make(map[string]catalog.RuleMeta, len(rules))
		for _, r := range rules {
			meta[r.Key] = r
		}

		for _, r := range p.rules {
			if _, ok := meta[r.key]; !ok {
				p.loadErr = fmt.Errorf("rule %s has no catalog entry", r.key)
				return
			}
		}

		p.catalog = rules
		p.meta = meta
	})

	return p.loadErr
}

func (p *Plugin) Rules() catalog.RuleMetas {
	return p.catalog
}

// Analyze parses the file and runs the active rules over its syntax tree.
func (p *Plugin) Analyze(ctx context.Context, fc *analyzers.FileContext) error {
	if p.meta == nil {
		return fmt.Errorf("plugin %s is not loaded", PluginKey)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(jsgrammar.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, fc.Content)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if n := firstError(root); n != nil {
			return fmt.Errorf("%w: %s: line %d, column %d", analyzers.ErrParse, fc.File.RelativePath(), n.StartPoint().Row+1, n.StartPoint().Column)
		}
		return fmt.Errorf("%w: %s", analyzers.ErrParse, fc.File.RelativePath())
	}

	var active []registeredRule
	for _, r := range p.rules {
		if fc.Active(r.key) {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil
	}

	return walk(root, func(n *sitter.Node) error {
		for _, r := range active {
			diagnostics, err := r.rule(n, fc.Content)
			if err != nil {
				return fmt.Errorf("rule %s failed on %s: %w", r.key, fc.File.RelativePath(), err)
			}

			meta := p.meta[r.key]
			for _, d := range diagnostics {
				fc.Report(types.Issue{
					Severity:        meta.Severity,
					Type:            meta.Type,
					RuleKey:         meta.Key,
					RuleName:        meta.Name,
					Message:         d.Message,
					StartLine:       d.StartLine,
					StartLineOffset: d.StartLineOffset,
					EndLine:         d.EndLine,
					EndLineOffset:   d.EndLineOffset,
				})
			}
		}
		return nil
	})
}

// walk visits n and its descendants depth-first, in source order.
func walk(n *sitter.Node, visit func(*sitter.Node) error) error {
	if err := visit(n); err != nil {
		return err
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		if err := walk(n.Child(i), visit); err != nil {
			return err
		}
	}
	return nil
}

// firstError returns the first ERROR or MISSING node in source order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			if found := firstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}
