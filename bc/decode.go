package bc

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes a boundary_conditions YAML block. The accepted layout is
//
//	on_empty_selection: skip | error
//	fixed:
//	  - selector: left_edge | nodes: [0, 3]
//	    dofs: [x, y]
//	loads:
//	  - type: point | edge
//	    selector: right_edge | nodes: [...]
//	    direction: x | y
//	    magnitude: -1.0
func Parse(data []byte) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		if wrapsSentinel(err) {
			return Spec{}, err
		}
		return Spec{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return s, nil
}

// UnmarshalYAML decodes and validates the whole block, so a Spec obtained
// from YAML never needs per-access checks
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("boundary_conditions (line %d): %w: expected a mapping", value.Line, ErrMalformed)
	}

	var out Spec
	seen := make(map[string]bool)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if seen[key.Value] {
			return fmt.Errorf("boundary_conditions (line %d): %w: %q", key.Line, ErrDuplicateField, key.Value)
		}
		seen[key.Value] = true
		switch key.Value {
		case "on_empty_selection":
			policy, err := ParseEmptySelectionPolicy(val.Value)
			if err != nil {
				return fmt.Errorf("boundary_conditions (line %d): %w", val.Line, err)
			}
			out.OnEmptySelection = policy

		case "fixed":
			items, err := sequence("fixed", val)
			if err != nil {
				return err
			}
			for idx, item := range items {
				var c Constraint
				if err := item.Decode(&c); err != nil {
					return &ValidationError{Section: "fixed", Index: idx, Line: item.Line, Err: err}
				}
				out.Constraints = append(out.Constraints, c)
			}

		case "loads":
			if val.Kind == yaml.MappingNode {
				return fmt.Errorf("%w: loads (line %d) must be a list of entries with a type field, not a point/edge mapping",
					ErrLegacySchema, val.Line)
			}
			items, err := sequence("loads", val)
			if err != nil {
				return err
			}
			for idx, item := range items {
				var l Load
				if err := item.Decode(&l); err != nil {
					return &ValidationError{Section: "loads", Index: idx, Line: item.Line, Err: err}
				}
				out.Loads = append(out.Loads, l)
			}

		case "constraints":
			return fmt.Errorf("%w: use fixed instead of constraints (line %d)", ErrLegacySchema, key.Line)

		default:
			return fmt.Errorf("boundary_conditions (line %d): %w: %q", key.Line, ErrUnknownField, key.Value)
		}
	}

	*s = out
	return nil
}

// sequence returns the entries of a list node; a null node is an empty list
func sequence(section string, n *yaml.Node) ([]*yaml.Node, error) {
	switch {
	case n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return nil, nil
	case n.Kind == yaml.SequenceNode:
		return n.Content, nil
	}
	return nil, fmt.Errorf("%s (line %d): %w: expected a list", section, n.Line, ErrMalformed)
}

func (c *Constraint) UnmarshalYAML(value *yaml.Node) error {
	f, err := readFields(value, "nodes", "selector", "dofs")
	if err != nil {
		return err
	}

	sel, err := f.selector()
	if err != nil {
		return err
	}

	dofs, ok := f["dofs"]
	if !ok {
		return fmt.Errorf("%w: dofs", ErrMissingField)
	}
	var tokens []string
	if dofs.Kind == yaml.ScalarNode {
		tokens = []string{dofs.Value}
	} else if err := dofs.Decode(&tokens); err != nil {
		return fmt.Errorf("%w: dofs: %v", ErrMalformed, err)
	}
	if len(tokens) == 0 {
		return fmt.Errorf("%w: dofs is empty", ErrMissingField)
	}
	axes := make([]Axis, 0, len(tokens))
	for _, tok := range tokens {
		a, err := ParseAxis(tok)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}

	*c = Constraint{Selection: sel, Axes: axes}
	return nil
}

func (l *Load) UnmarshalYAML(value *yaml.Node) error {
	f, err := readFields(value, "type", "nodes", "selector", "direction", "magnitude")
	if err != nil {
		return err
	}

	kind := PointLoad
	if t, ok := f["type"]; ok {
		if kind, err = ParseLoadKind(t.Value); err != nil {
			return err
		}
	}

	sel, err := f.selector()
	if err != nil {
		return err
	}

	dir, ok := f["direction"]
	if !ok {
		return fmt.Errorf("%w: direction", ErrMissingField)
	}
	axis, err := ParseAxis(dir.Value)
	if err != nil {
		return err
	}

	mag, ok := f["magnitude"]
	if !ok {
		return fmt.Errorf("%w: magnitude", ErrMissingField)
	}
	var magnitude float64
	if err := mag.Decode(&magnitude); err != nil {
		return fmt.Errorf("%w: magnitude: %v", ErrMalformed, err)
	}

	*l = Load{Kind: kind, Selection: sel, Axis: axis, Magnitude: magnitude}
	return nil
}

type fields map[string]*yaml.Node

func readFields(value *yaml.Node, allowed ...string) (fields, error) {
	if value.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping", ErrMalformed)
	}
	f := make(fields)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if _, dup := f[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, key)
		}
		f[key] = value.Content[i+1]
	}
	return f, nil
}

// selector builds the tagged node selection; nodes and selector are
// mutually exclusive
func (f fields) selector() (NodeSelector, error) {
	nodes, hasNodes := f["nodes"]
	name, hasSelector := f["selector"]
	switch {
	case hasNodes && hasSelector:
		return nil, ErrConflictingSelection
	case hasNodes:
		var ids []int
		if err := nodes.Decode(&ids); err != nil {
			return nil, fmt.Errorf("%w: nodes: %v", ErrMalformed, err)
		}
		return ExplicitNodes(ids), nil
	case hasSelector:
		edge, err := ParseEdge(name.Value)
		if err != nil {
			return nil, err
		}
		return EdgeSelector{Edge: edge}, nil
	}
	return nil, fmt.Errorf("%w: nodes or selector", ErrMissingField)
}
