package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/osfbuildersuite/standalone-linter/types"
)

// RuleMeta represents a rule present in a catalog TOML file.
type RuleMeta struct {
	Key         string `toml:"key"`
	Name        string `toml:"name"`
	Severity    string `toml:"severity"`
	Type        string `toml:"type"`
	Description string `toml:"description"`
}

type RuleMetas []RuleMeta

// ruleTOML is used for decoding rules from a TOML file.
type ruleTOML struct {
	Rules []RuleMeta `toml:"rules"`
}

// FetchRules reads a TOML file containing all rules, and returns them sorted by key.
func FetchRules(r io.Reader) (RuleMetas, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var decoded ruleTOML
	if err := toml.Unmarshal(content, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode rule catalog: %w", err)
	}

	rules := RuleMetas(decoded.Rules)
	for _, rule := range rules {
		if err := rule.validate(); err != nil {
			return nil, err
		}
	}

	// sort rules (based on key) before returning
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Key < rules[j].Key
	})

	return rules, nil
}

func (r RuleMeta) validate() error {
	if r.Key == "" {
		return errors.New("invalid rule: empty key")
	}
	if !types.ValidSeverity(r.Severity) {
		return fmt.Errorf("invalid rule %s: unknown severity %q", r.Key, r.Severity)
	}
	if !types.ValidType(r.Type) {
		return fmt.Errorf("invalid rule %s: unknown type %q", r.Key, r.Type)
	}
	return nil
}

// ShortKey returns the key without its repository prefix ("javascript:S1116" -> "S1116").
func (r RuleMeta) ShortKey() string {
	return ShortKey(r.Key)
}

// ShortKey strips the repository prefix from a rule key.
func ShortKey(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Lookup finds a rule by its full or short key.
func (rs RuleMetas) Lookup(key string) (RuleMeta, bool) {
	for _, r := range rs {
		if r.Key == key || r.ShortKey() == key {
			return r, true
		}
	}
	return RuleMeta{}, false
}

// HTMLDescription renders the markdown description to sanitized HTML.
func (r RuleMeta) HTMLDescription() (string, error) {
	return readMarkdown(r.Description)
}

// BuildTOML writes one TOML file per rule to rootDir.
func (rs RuleMetas) BuildTOML(rootDir string) error {
	if len(rs) == 0 {
		return errors.New("no rules found")
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return err
	}

	for _, rule := range rs {
		// The filename is based on the rule key. TOML files cannot be generated for rules having an empty key.
		if rule.Key == "" {
			return errors.New("invalid rule key. cannot generate toml")
		}

		filename := fmt.Sprintf("%s.toml", rule.ShortKey())
		f, err := os.Create(filepath.Join(rootDir, filename))
		if err != nil {
			return err
		}

		if err := rule.Write(f); err != nil {
			f.Close()
			return err
		}

		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}

// Write writes the rule as TOML to the writer.
func (r RuleMeta) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(r)
}

// readMarkdown parses GitHub-flavored markdown and sanitizes the resulting HTML.
func readMarkdown(content string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		return "", err
	}

	p := bluemonday.UGCPolicy()
	return p.Sanitize(buf.String()), nil
}
