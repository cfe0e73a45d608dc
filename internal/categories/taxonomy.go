// Package categories loads the income and expense category lists.
package categories

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"fintrack/internal/core"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrDuplicateCategory = errors.New("category listed as both income and expense")

// Taxonomy is an ordered set of category names per transaction kind.
// It is read-only after construction.
type Taxonomy struct {
	income  []string
	expense []string
	kinds   map[string]core.Kind // lower-cased name -> kind
}

type document struct {
	Income  []string `yaml:"income"`
	Expense []string `yaml:"expense"`
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("categories: embedded defaults: %v", err))
	}
	return t
}

// Load reads a taxonomy file, or returns the default one when path is empty.
func Load(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a YAML document with "income" and "expense" lists.
// Blank entries are skipped and repeats within a list are dropped.
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	t := &Taxonomy{kinds: make(map[string]core.Kind)}
	var err error
	if t.income, err = t.add(core.Income, doc.Income); err != nil {
		return nil, err
	}
	if t.expense, err = t.add(core.Expense, doc.Expense); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) add(kind core.Kind, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if existing, ok := t.kinds[key]; ok {
			if existing != kind {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, n)
			}
			continue
		}
		t.kinds[key] = kind
		out = append(out, n)
	}
	return out, nil
}

// List returns the categories of kind in declaration order.
func (t *Taxonomy) List(kind core.Kind) []string {
	var src []string
	switch kind {
	case core.Income:
		src = t.income
	case core.Expense:
		src = t.expense
	}
	return append([]string(nil), src...)
}

// Canonical returns the declared spelling of name if it belongs to kind.
func (t *Taxonomy) Canonical(kind core.Kind, name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if t.kinds[key] != kind {
		return "", false
	}
	for _, n := range t.List(kind) {
		if strings.ToLower(n) == key {
			return n, true
		}
	}
	return "", false
}
