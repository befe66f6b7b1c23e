package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reprosim/nrnexp/internal/document"
)

// BuildPlan is the ordered, fully resolved construction sequence plus
// the resolved settings the engine adapter needs to run and export the
// simulation. Immutable; consumed exactly once.
type BuildPlan struct {
	Experiment  string               `json:"experiment" yaml:"experiment"`
	Environment document.Environment `json:"environment" yaml:"environment"`
	Steps       []Step               `json:"steps" yaml:"steps"`
	Simulation  document.Simulation  `json:"simulation" yaml:"simulation"`
	Outputs     document.Outputs     `json:"outputs" yaml:"outputs"`
}

// Fingerprint returns the sha256 hex digest of the plan's
// deterministic JSON encoding. Two pipeline runs over the same valid
// document yield identical fingerprints.
func (p *BuildPlan) Fingerprint() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("fingerprint plan: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// EncodeJSON renders the plan as indented JSON.
func (p *BuildPlan) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// EncodeYAML renders the plan as YAML.
func (p *BuildPlan) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(p)
}
