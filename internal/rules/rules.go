// Package rules holds the decision table behind signal extraction and lead
// scoring. Tables are plain YAML so the taxonomy can change without a
// rebuild; the signals and scoring packages only interpret them.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/HanTheDev/lead-signal-pipeline/internal/models"
	"gopkg.in/yaml.v3"
)

type Source string

const (
	SourceResponse Source = "response"
	SourceUser     Source = "user"
	SourceBoth     Source = "both"
)

type AttributeMode string

const (
	ModeFlag    AttributeMode = "flag"
	ModeFirst   AttributeMode = "first"
	ModeAll     AttributeMode = "all"
	ModeCapture AttributeMode = "capture"
	ModeCount   AttributeMode = "count"
)

type Bucket struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Match    Matcher  `yaml:"-"`
}

type AttributeRule struct {
	Name       string        `yaml:"name"`
	Mode       AttributeMode `yaml:"mode"`
	Patterns   []string      `yaml:"patterns,omitempty"`
	Buckets    []Bucket      `yaml:"buckets,omitempty"`
	Fallback   string        `yaml:"fallback,omitempty"`
	ValueTrue  string        `yaml:"value_true,omitempty"`
	ValueFalse string        `yaml:"value_false,omitempty"`
	Match      Matcher       `yaml:"-"`
}

type SignalRule struct {
	Kind       models.SignalKind `yaml:"kind"`
	Source     Source            `yaml:"source"`
	Patterns   []string          `yaml:"patterns"`
	Attributes []AttributeRule   `yaml:"attributes,omitempty"`
	Match      Matcher           `yaml:"-"`
}

type Indicator struct {
	Name     string   `yaml:"name"`
	Weight   int      `yaml:"weight"`
	Patterns []string `yaml:"patterns"`
	Match    Matcher  `yaml:"-"`
}

type Table struct {
	Signals            []SignalRule `yaml:"signals"`
	UserIndicators     []Indicator  `yaml:"user_indicators"`
	ResponseIndicators []Indicator  `yaml:"response_indicators"`
}

//go:embed default.yaml
var defaultYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table. It is parsed once and shared; callers
// must not mutate it.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultYAML)
		if err != nil {
			panic(fmt.Sprintf("rules: embedded default table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load reads a table from path. An empty path yields the default table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	if err := t.compile(); err != nil {
		return nil, err
	}

	return &t, nil
}

func (t *Table) compile() error {
	seen := make(map[models.SignalKind]struct{}, len(t.Signals))

	for i := range t.Signals {
		rule := &t.Signals[i]
		if !rule.Kind.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownKind, rule.Kind)
		}
		if _, dup := seen[rule.Kind]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateKind, rule.Kind)
		}
		seen[rule.Kind] = struct{}{}

		switch rule.Source {
		case "":
			rule.Source = SourceResponse
		case SourceResponse, SourceUser, SourceBoth:
		default:
			return fmt.Errorf("%w: %q on %s", ErrUnknownSource, rule.Source, rule.Kind)
		}

		m, err := compilePatterns(string(rule.Kind), rule.Patterns)
		if err != nil {
			return err
		}
		rule.Match = m

		for j := range rule.Attributes {
			if err := compileAttribute(rule.Kind, &rule.Attributes[j]); err != nil {
				return err
			}
		}
	}

	for _, group := range [][]Indicator{t.UserIndicators, t.ResponseIndicators} {
		for i := range group {
			ind := &group[i]
			if ind.Name == "" {
				return fmt.Errorf("%w: indicator without a name", ErrEmptyPatterns)
			}
			if ind.Weight <= 0 {
				return fmt.Errorf("%w: %s has weight %d", ErrBadWeight, ind.Name, ind.Weight)
			}
			m, err := compilePatterns(ind.Name, ind.Patterns)
			if err != nil {
				return err
			}
			ind.Match = m
		}
	}

	return nil
}

func compileAttribute(kind models.SignalKind, attr *AttributeRule) error {
	owner := fmt.Sprintf("%s.%s", kind, attr.Name)
	if attr.Name == "" {
		return fmt.Errorf("%w: attribute on %s has no name", ErrUnknownMode, kind)
	}

	switch attr.Mode {
	case ModeFlag, ModeCapture:
		m, err := compilePatterns(owner, attr.Patterns)
		if err != nil {
			return err
		}
		attr.Match = m
	case ModeFirst, ModeAll:
		if len(attr.Buckets) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyPatterns, owner)
		}
		for i := range attr.Buckets {
			b := &attr.Buckets[i]
			m, err := compilePatterns(owner+"."+b.Name, b.Patterns)
			if err != nil {
				return err
			}
			b.Match = m
		}
	case ModeCount:
	default:
		return fmt.Errorf("%w: %q on %s", ErrUnknownMode, attr.Mode, owner)
	}

	return nil
}
