package analyzer

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var embeddedAliases []byte

// Table canonicalizes analyzer tags
type Table struct {
	Aliases map[string]string `yaml:"aliases"`
	Ignore  []string          `yaml:"ignore"`

	ignore map[string]struct{}
}

// DefaultTable parses the embedded alias table
func DefaultTable() (*Table, error) { return LoadTable(embeddedAliases) }

// LoadTable parses a YAML alias table, keys are matched case-insensitively
func LoadTable(b []byte) (*Table, error) {
	var raw Table
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("analyzer: decode aliases: %w", err)
	}
	t := &Table{Aliases: make(map[string]string, len(raw.Aliases)), ignore: map[string]struct{}{}}
	for k, v := range raw.Aliases {
		t.Aliases[key(k)] = strings.TrimSpace(v)
	}
	for _, k := range raw.Ignore {
		t.Ignore = append(t.Ignore, k)
		t.ignore[key(k)] = struct{}{}
	}
	return t, nil
}

// Normalize returns the canonical tag and false when the tag is ignored or empty
func (t *Table) Normalize(tag string) (string, bool) {
	k := key(tag)
	if k == "" {
		return "", false
	}
	if t == nil {
		return k, true
	}
	if _, ok := t.ignore[k]; ok {
		return "", false
	}
	if v, ok := t.Aliases[k]; ok {
		return v, true
	}
	return k, true
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
