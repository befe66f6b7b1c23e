package document

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse parses raw YAML into a document tree. The returned node is the
// root mapping, with the enclosing document node unwrapped so callers
// can walk fields directly.
func Parse(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		return root.Content[0], nil
	}
	if root.Kind == 0 {
		return nil, fmt.Errorf("parse document: empty document")
	}
	return &root, nil
}

// LoadFile reads and parses an experiment document from disk.
func LoadFile(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	node, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return node, nil
}

// Decode builds the typed semantic model from a parsed document tree.
// The tree must have passed schema validation first; Decode applies
// defaults but performs no validation of its own.
func Decode(root *yaml.Node) (*Document, error) {
	var doc Document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
