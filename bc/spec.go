package bc

import (
	"fmt"
	"strings"

	"github.com/notargets/fglopt/mesh"
)

// Axis is a displacement direction; its value is the offset of the DOF
// within a node, so the global DOF is 2*node + Axis
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Dof returns the global DOF index of this axis at node n
func (a Axis) Dof(n int) int {
	if a == AxisY {
		return mesh.DofY(n)
	}
	return mesh.DofX(n)
}

// ParseAxis accepts x, y and the displacement names ux, uy, in any case
func ParseAxis(token string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "x", "ux":
		return AxisX, nil
	case "y", "uy":
		return AxisY, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDof, token)
}

// LoadKind selects how a load magnitude is spread over its nodes
type LoadKind uint8

const (
	// PointLoad applies the full magnitude at every selected node
	PointLoad LoadKind = iota
	// EdgeLoad treats the magnitude as a total and splits it evenly
	EdgeLoad
)

func (k LoadKind) String() string {
	if k == EdgeLoad {
		return "edge"
	}
	return "point"
}

func ParseLoadKind(token string) (LoadKind, error) {
	switch token {
	case "point":
		return PointLoad, nil
	case "edge":
		return EdgeLoad, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedLoadKind, token)
}

// EmptySelectionPolicy decides what a load that selects no nodes does
type EmptySelectionPolicy uint8

const (
	OnEmptySkip EmptySelectionPolicy = iota
	OnEmptyError
)

func (p EmptySelectionPolicy) String() string {
	if p == OnEmptyError {
		return "error"
	}
	return "skip"
}

func ParseEmptySelectionPolicy(token string) (EmptySelectionPolicy, error) {
	switch token {
	case "", "skip":
		return OnEmptySkip, nil
	case "error":
		return OnEmptyError, nil
	}
	return 0, fmt.Errorf("%w: on_empty_selection must be skip or error, got %q", ErrMalformed, token)
}

// Constraint fixes the listed axes at every selected node
type Constraint struct {
	Selection NodeSelector
	Axes      []Axis
}

// Load applies Magnitude along Axis to the selected nodes
type Load struct {
	Kind      LoadKind
	Selection NodeSelector
	Axis      Axis
	Magnitude float64
}

// Spec is the validated boundary condition specification
type Spec struct {
	Constraints      []Constraint
	Loads            []Load
	OnEmptySelection EmptySelectionPolicy
}

// Validate checks the fields that the YAML decoder would have rejected, for
// specs assembled in code
func (s Spec) Validate() error {
	if s.OnEmptySelection > OnEmptyError {
		return fmt.Errorf("%w: on_empty_selection %d", ErrMalformed, s.OnEmptySelection)
	}
	for i, c := range s.Constraints {
		if c.Selection == nil {
			return &ValidationError{Section: "fixed", Index: i,
				Err: fmt.Errorf("%w: nodes or selector", ErrMissingField)}
		}
		if len(c.Axes) == 0 {
			return &ValidationError{Section: "fixed", Index: i,
				Err: fmt.Errorf("%w: dofs", ErrMissingField)}
		}
		for _, a := range c.Axes {
			if a > AxisY {
				return &ValidationError{Section: "fixed", Index: i,
					Err: fmt.Errorf("%w: %d", ErrUnsupportedDof, a)}
			}
		}
	}
	for i, l := range s.Loads {
		if l.Selection == nil {
			return &ValidationError{Section: "loads", Index: i,
				Err: fmt.Errorf("%w: nodes or selector", ErrMissingField)}
		}
		if l.Axis > AxisY {
			return &ValidationError{Section: "loads", Index: i,
				Err: fmt.Errorf("%w: %d", ErrUnsupportedDof, l.Axis)}
		}
		if l.Kind > EdgeLoad {
			return &ValidationError{Section: "loads", Index: i,
				Err: fmt.Errorf("%w: %d", ErrUnsupportedLoadKind, l.Kind)}
		}
	}
	return nil
}

func (s Spec) clone() Spec {
	out := Spec{
		Constraints:      make([]Constraint, len(s.Constraints)),
		Loads:            make([]Load, len(s.Loads)),
		OnEmptySelection: s.OnEmptySelection,
	}
	for i, c := range s.Constraints {
		out.Constraints[i] = Constraint{
			Selection: cloneSelector(c.Selection),
			Axes:      append([]Axis(nil), c.Axes...),
		}
	}
	for i, l := range s.Loads {
		l.Selection = cloneSelector(l.Selection)
		out.Loads[i] = l
	}
	return out
}

func cloneSelector(sel NodeSelector) NodeSelector {
	if e, ok := sel.(ExplicitNodes); ok {
		return append(ExplicitNodes(nil), e...)
	}
	return sel
}
