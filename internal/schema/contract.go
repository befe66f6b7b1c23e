// Package schema validates a parsed document tree against a
// declarative structural contract: required fields, primitive types,
// enumerations, and numeric ranges. It never inspects relationships
// between fields, and it accumulates every structural diagnostic it can
// find instead of stopping at the first.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed contract.yaml
var contractYAML []byte

// Rule is one structural requirement at a document path. Path segments
// are dot-separated; "*" matches every key of a mapping or every index
// of a sequence.
type Rule struct {
	Path     string   `yaml:"path"`
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required"`
	Enum     []string `yaml:"enum"`

	// Inclusive and exclusive numeric bounds. Nil means unbounded.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
	GT  *float64 `yaml:"gt"`
	GTE *float64 `yaml:"gte"`
}

// segments returns the parsed path segments.
func (r Rule) segments() []string {
	return strings.Split(r.Path, ".")
}

// Contract is the structural contract for experiment documents. It is
// a versioned artifact owned outside the validator logic; the embedded
// copy is the version this build ships with.
type Contract struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// LoadContract parses a contract from YAML.
func LoadContract(data []byte) (*Contract, error) {
	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse contract: %w", err)
	}
	if len(c.Rules) == 0 {
		return nil, fmt.Errorf("parse contract: no rules declared")
	}
	return &c, nil
}

// Default returns the embedded contract shipped with this build.
func Default() *Contract {
	c, err := LoadContract(contractYAML)
	if err != nil {
		// The embedded contract is part of the build; failing to parse
		// it is a packaging defect, not a runtime condition.
		panic(err)
	}
	return c
}
