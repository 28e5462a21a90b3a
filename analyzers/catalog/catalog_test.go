package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func TestReadMarkdown(t *testing.T) {
	cases := []struct {
		content  string
		expected string
	}{
		{"# Sample", "<h1>Sample</h1>\n"},
		{"## Sample", "<h2>Sample</h2>\n"},
		{"`Sample`", "<p><code>Sample</code></p>\n"},
		{"[link](https://example.com)", `<p><a href="https://example.com" rel="nofollow">link</a></p>` + "\n"},
	}

	for _, tc := range cases {
		actual, err := readMarkdown(tc.content)
		if err != nil {
			t.Error(err)
		}

		if actual != tc.expected {
			t.Errorf("expected: %s, got: %s\n", tc.expected, actual)
		}
	}
}

func TestFetchRules(t *testing.T) {
	tomlNormal := `
[[rules]]
key = "javascript:S3504"
name = "Variables should be declared with \"let\" or \"const\""
severity = "CRITICAL"
type = "CODE_SMELL"
description = """
## Why
"""

[[rules]]
key = "javascript:S1116"
name = "Extra semicolons should be removed"
severity = "MINOR"
type = "CODE_SMELL"
`

	expectedNormal := RuleMetas{
		{
			Key:      "javascript:S1116",
			Name:     "Extra semicolons should be removed",
			Severity: "MINOR",
			Type:     "CODE_SMELL",
		},
		{
			Key:         "javascript:S3504",
			Name:        `Variables should be declared with "let" or "const"`,
			Severity:    "CRITICAL",
			Type:        "CODE_SMELL",
			Description: "## Why\n",
		},
	}

	cases := []struct {
		description string
		tomlContent string
		expected    RuleMetas
		expectErr   bool
	}{
		{"normal TOML content sorted by key", tomlNormal, expectedNormal, false},
		{"blank TOML", ``, nil, false},
		{"unknown severity", "[[rules]]\nkey = \"javascript:S1\"\nseverity = \"HUGE\"\ntype = \"BUG\"\n", nil, true},
		{"unknown type", "[[rules]]\nkey = \"javascript:S1\"\nseverity = \"MAJOR\"\ntype = \"OOPS\"\n", nil, true},
		{"missing key", "[[rules]]\nseverity = \"MAJOR\"\ntype = \"BUG\"\n", nil, true},
		{"malformed TOML", "[[rules]\n", nil, true},
	}

	for _, tc := range cases {
		actual, err := FetchRules(strings.NewReader(tc.tomlContent))
		if (err != nil) != tc.expectErr {
			t.Errorf("description: %s, unexpected error state: %v", tc.description, err)
			continue
		}

		if tc.expectErr {
			continue
		}

		if diff := deep.Equal(actual, tc.expected); diff != nil {
			t.Errorf("description: %s, %s", tc.description, diff)
		}
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer

	rule := RuleMeta{
		Key:         "javascript:S1116",
		Name:        "Extra semicolons should be removed",
		Severity:    "MINOR",
		Type:        "CODE_SMELL",
		Description: "example",
	}

	expected := `key = "javascript:S1116"
name = "Extra semicolons should be removed"
severity = "MINOR"
type = "CODE_SMELL"
description = "example"` + "\n"

	if err := rule.Write(&buf); err != nil {
		t.Fatal(err)
	}

	if diff := deep.Equal(buf.String(), expected); diff != nil {
		t.Error(diff)
	}
}

func TestBuildTOML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rules")

	rules := RuleMetas{
		{Key: "javascript:S1116", Name: "a", Severity: "MINOR", Type: "CODE_SMELL"},
		{Key: "javascript:S1440", Name: "b", Severity: "MAJOR", Type: "CODE_SMELL"},
	}

	if err := rules.BuildTOML(dir); err != nil {
		t.Fatal(err)
	}

	var parsed RuleMetas
	for _, name := range []string{"S1116.toml", "S1440.toml"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}

		content := new(bytes.Buffer)
		if _, err := content.ReadFrom(f); err != nil {
			t.Fatal(err)
		}
		f.Close()

		// wrap the single rule so it can go through FetchRules again
		fetched, err := FetchRules(strings.NewReader("[[rules]]\n" + content.String()))
		if err != nil {
			t.Fatal(err)
		}
		parsed = append(parsed, fetched...)
	}

	if diff := deep.Equal(parsed, rules); diff != nil {
		t.Error(diff)
	}

	if err := (RuleMetas{}).BuildTOML(dir); err == nil {
		t.Error("expected an error for an empty catalog")
	}
}

func TestLookup(t *testing.T) {
	rules := RuleMetas{{Key: "javascript:S1116"}, {Key: "javascript:S1440"}}

	cases := []struct {
		key   string
		found bool
	}{
		{"javascript:S1116", true},
		{"S1440", true},
		{"S9999", false},
	}

	for _, tc := range cases {
		_, ok := rules.Lookup(tc.key)
		if ok != tc.found {
			t.Errorf("key: %s, expected found=%v", tc.key, tc.found)
		}
	}
}
