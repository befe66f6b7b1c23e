package schema

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reprosim/nrnexp/internal/diag"
)

// Validate checks a parsed document tree against the embedded contract
// and returns every structural diagnostic found. An empty result means
// the document is structurally valid.
func Validate(root *yaml.Node) []diag.Diagnostic {
	return ValidateWith(root, Default())
}

// ValidateWith checks the tree against an explicit contract.
func ValidateWith(root *yaml.Node, c *Contract) []diag.Diagnostic {
	node := deref(root)
	if node == nil || node.Kind != yaml.MappingNode {
		return []diag.Diagnostic{{
			Stage:    diag.StageSchema,
			Path:     "",
			Code:     diag.CodeSchemaType,
			Severity: diag.SeverityFatal,
			Message:  "document root must be a mapping",
		}}
	}

	var ds []diag.Diagnostic
	ds = append(ds, checkDuplicateKeys(node, "")...)
	for _, rule := range c.Rules {
		ds = append(ds, checkRule(node, rule)...)
	}
	ds = append(ds, checkTimestepPairing(node)...)
	return ds
}

// checkDuplicateKeys walks the whole tree and reports mapping keys
// declared more than once. yaml.v3 keeps both entries in the node tree
// but rejects them at decode time, so they must surface here as
// document diagnostics rather than a decode failure.
func checkDuplicateKeys(n *yaml.Node, base string) []diag.Diagnostic {
	node := deref(n)
	if node == nil {
		return nil
	}
	var ds []diag.Diagnostic
	switch node.Kind {
	case yaml.MappingNode:
		seen := make(map[string]bool)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			path := joinPath(base, key)
			if seen[key] {
				ds = append(ds, diag.Diagnostic{
					Stage:    diag.StageSchema,
					Path:     path,
					Code:     diag.CodeReferenceDuplicate,
					Severity: diag.SeverityFatal,
					Message:  fmt.Sprintf("key %q is declared more than once", key),
				})
			}
			seen[key] = true
			ds = append(ds, checkDuplicateKeys(node.Content[i+1], path)...)
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			ds = append(ds, checkDuplicateKeys(item, fmt.Sprintf("%s[%d]", base, i))...)
		}
	}
	return ds
}

// match pairs a resolved node with its rendered document path.
type match struct {
	node *yaml.Node
	path string
}

func checkRule(root *yaml.Node, rule Rule) []diag.Diagnostic {
	segs := rule.segments()
	parents := []match{{node: root, path: ""}}
	for _, seg := range segs[:len(segs)-1] {
		parents = resolve(parents, seg)
	}

	last := segs[len(segs)-1]
	var ds []diag.Diagnostic
	for _, p := range parents {
		pn := deref(p.node)
		if last == "*" {
			for _, child := range children(pn, p.path) {
				ds = append(ds, checkValue(rule, child.path, child.node)...)
			}
			continue
		}
		if pn.Kind != yaml.MappingNode {
			// A wrong-typed parent is reported by the parent's own rule.
			continue
		}
		path := joinPath(p.path, last)
		v, ok := mapValue(pn, last)
		if !ok || isNull(v) {
			if rule.Required {
				ds = append(ds, diag.Diagnostic{
					Stage:    diag.StageSchema,
					Path:     path,
					Code:     diag.CodeSchemaRequired,
					Severity: diag.SeverityFatal,
					Message:  "required field is missing",
				})
			}
			continue
		}
		ds = append(ds, checkValue(rule, path, v)...)
	}
	return ds
}

// checkValue applies the rule's type, enum, and range constraints to a
// single present value.
func checkValue(rule Rule, path string, node *yaml.Node) []diag.Diagnostic {
	n := deref(node)
	fail := func(code diag.Code, msg string) []diag.Diagnostic {
		return []diag.Diagnostic{{
			Stage:    diag.StageSchema,
			Path:     path,
			Code:     code,
			Severity: diag.SeverityFatal,
			Message:  msg,
		}}
	}

	switch rule.Type {
	case "mapping":
		if n.Kind != yaml.MappingNode {
			return fail(diag.CodeSchemaType, "expected a mapping")
		}
	case "sequence":
		if n.Kind != yaml.SequenceNode {
			return fail(diag.CodeSchemaType, "expected a sequence")
		}
	case "string":
		if n.Kind != yaml.ScalarNode || n.Tag != "!!str" {
			return fail(diag.CodeSchemaType, "expected a string")
		}
	case "boolean":
		if n.Kind != yaml.ScalarNode || n.Tag != "!!bool" {
			return fail(diag.CodeSchemaType, "expected a boolean")
		}
	case "integer":
		if n.Kind != yaml.ScalarNode || n.Tag != "!!int" {
			return fail(diag.CodeSchemaType, "expected an integer")
		}
	case "number":
		if n.Kind != yaml.ScalarNode || (n.Tag != "!!int" && n.Tag != "!!float") {
			return fail(diag.CodeSchemaType, "expected a number")
		}
	}

	if len(rule.Enum) > 0 && n.Kind == yaml.ScalarNode {
		found := false
		for _, allowed := range rule.Enum {
			if n.Value == allowed {
				found = true
				break
			}
		}
		if !found {
			return fail(diag.CodeSchemaEnum,
				fmt.Sprintf("value %q is not one of [%s]", n.Value, strings.Join(rule.Enum, ", ")))
		}
	}

	if rule.Min != nil || rule.Max != nil || rule.GT != nil || rule.GTE != nil {
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil // type diagnostic already covers non-numeric values
		}
		switch {
		case rule.Min != nil && v < *rule.Min:
			return fail(diag.CodeSchemaRange, fmt.Sprintf("value %v is below minimum %v", v, *rule.Min))
		case rule.Max != nil && v > *rule.Max:
			return fail(diag.CodeSchemaRange, fmt.Sprintf("value %v is above maximum %v", v, *rule.Max))
		case rule.GT != nil && v <= *rule.GT:
			return fail(diag.CodeSchemaRange, fmt.Sprintf("value %v must be greater than %v", v, *rule.GT))
		case rule.GTE != nil && v < *rule.GTE:
			return fail(diag.CodeSchemaRange, fmt.Sprintf("value %v must be at least %v", v, *rule.GTE))
		}
	}

	return nil
}

// checkTimestepPairing enforces dt_ms <= tstop_ms, the one numeric
// range declared over a field pair.
func checkTimestepPairing(root *yaml.Node) []diag.Diagnostic {
	sim, ok := mapValue(root, "simulation")
	if !ok {
		return nil
	}
	simNode := deref(sim)
	if simNode.Kind != yaml.MappingNode {
		return nil
	}
	tstop, okT := scalarFloat(simNode, "tstop_ms")
	dt, okD := scalarFloat(simNode, "dt_ms")
	if okT && okD && dt > tstop {
		return []diag.Diagnostic{{
			Stage:    diag.StageSchema,
			Path:     "simulation.dt_ms",
			Code:     diag.CodeSchemaRange,
			Severity: diag.SeverityFatal,
			Message:  fmt.Sprintf("dt_ms %v must not exceed tstop_ms %v", dt, tstop),
		}}
	}
	return nil
}

// resolve advances all matches by one path segment. Missing keys
// simply drop out; the leaf rule reports required-field violations.
func resolve(parents []match, seg string) []match {
	var out []match
	for _, p := range parents {
		n := deref(p.node)
		if seg == "*" {
			out = append(out, children(n, p.path)...)
			continue
		}
		if n.Kind != yaml.MappingNode {
			continue
		}
		if v, ok := mapValue(n, seg); ok && !isNull(v) {
			out = append(out, match{node: v, path: joinPath(p.path, seg)})
		}
	}
	return out
}

// children expands a mapping into its values or a sequence into its
// items, with rendered paths.
func children(n *yaml.Node, base string) []match {
	var out []match
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			out = append(out, match{
				node: n.Content[i+1],
				path: joinPath(base, n.Content[i].Value),
			})
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			out = append(out, match{node: item, path: fmt.Sprintf("%s[%d]", base, i)})
		}
	}
	return out
}

// mapValue looks up a key in a mapping node.
func mapValue(n *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1], true
		}
	}
	return nil, false
}

// scalarFloat extracts a numeric scalar from a mapping, if present.
func scalarFloat(n *yaml.Node, key string) (float64, bool) {
	v, ok := mapValue(n, key)
	if !ok {
		return 0, false
	}
	vn := deref(v)
	if vn.Kind != yaml.ScalarNode {
		return 0, false
	}
	f, err := strconv.ParseFloat(vn.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func isNull(n *yaml.Node) bool {
	d := deref(n)
	return d == nil || (d.Kind == yaml.ScalarNode && d.Tag == "!!null")
}

func deref(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}
