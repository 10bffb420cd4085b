package bc

import (
	"fmt"
	"sort"

	"github.com/notargets/fglopt/mesh"
	"gonum.org/v1/gonum/floats/scalar"
)

// Tolerance is the absolute distance within which a node coordinate counts
// as lying on a domain edge
const Tolerance = 1e-9

// NodeSelector resolves to a sorted set of unique node indices of a mesh.
// Implementations are ExplicitNodes and EdgeSelector.
type NodeSelector interface {
	SelectNodes(m *mesh.Mesh) ([]int, error)
	String() string
}

// ExplicitNodes selects the listed node indices
type ExplicitNodes []int

func (e ExplicitNodes) SelectNodes(m *mesh.Mesh) ([]int, error) {
	if !m.IsGenerated() {
		return nil, mesh.ErrNotGenerated
	}
	n := m.NumNodes()
	seen := make(map[int]bool, len(e))
	out := make([]int, 0, len(e))
	for _, node := range e {
		if node < 0 || node >= n {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrNodeOutOfBounds, node, n)
		}
		if !seen[node] {
			seen[node] = true
			out = append(out, node)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (e ExplicitNodes) String() string {
	return fmt.Sprintf("nodes %v", []int(e))
}

// Edge names one side of the rectangular domain
type Edge uint8

const (
	LeftEdge Edge = iota
	RightEdge
	TopEdge
	BottomEdge
)

var edgeNames = map[string]Edge{
	"left_edge":   LeftEdge,
	"right_edge":  RightEdge,
	"top_edge":    TopEdge,
	"bottom_edge": BottomEdge,
}

func (e Edge) String() string {
	switch e {
	case LeftEdge:
		return "left_edge"
	case RightEdge:
		return "right_edge"
	case TopEdge:
		return "top_edge"
	case BottomEdge:
		return "bottom_edge"
	}
	return fmt.Sprintf("Edge(%d)", uint8(e))
}

// ParseEdge maps a selector name such as "left_edge" to its Edge
func ParseEdge(name string) (Edge, error) {
	if e, ok := edgeNames[name]; ok {
		return e, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSelector, name)
}

// EdgeSelector selects every node whose coordinate matches a domain edge:
// x = 0 (left), x = Lx (right), y = Ly (top), y = 0 (bottom)
type EdgeSelector struct {
	Edge Edge
}

func (s EdgeSelector) SelectNodes(m *mesh.Mesh) ([]int, error) {
	if !m.IsGenerated() {
		return nil, mesh.ErrNotGenerated
	}
	var (
		coords []float64
		target float64
	)
	switch s.Edge {
	case LeftEdge:
		coords, target = m.X(), 0
	case RightEdge:
		coords, target = m.X(), m.Lx()
	case BottomEdge:
		coords, target = m.Y(), 0
	case TopEdge:
		coords, target = m.Y(), m.Ly()
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedSelector, s.Edge)
	}

	var out []int
	for node, c := range coords {
		if scalar.EqualWithinAbs(c, target, Tolerance) {
			out = append(out, node)
		}
	}
	return out, nil
}

func (s EdgeSelector) String() string {
	return "selector " + s.Edge.String()
}
