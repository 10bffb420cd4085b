package bc

import (
	"fmt"
	"sort"

	"github.com/notargets/fglopt/mesh"
	"gonum.org/v1/gonum/mat"
)

// Resolver turns a Spec into constrained DOFs and nodal forces for a mesh.
// It holds no state besides its private copy of the Spec, so results are a
// pure function of (spec, mesh).
type Resolver struct {
	spec Spec
}

// NewResolver validates spec and keeps a copy of it
func NewResolver(spec Spec) (*Resolver, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{spec: spec.clone()}, nil
}

// Spec returns a copy of the specification held by the resolver
func (r *Resolver) Spec() Spec {
	return r.spec.clone()
}

// ConstrainedDofs returns the sorted, unique global DOF indices fixed by the
// constraint entries
func (r *Resolver) ConstrainedDofs(m *mesh.Mesh) ([]int, error) {
	set := make(map[int]struct{})
	for i, c := range r.spec.Constraints {
		nodes, err := c.Selection.SelectNodes(m)
		if err != nil {
			return nil, &ValidationError{Section: "fixed", Index: i, Err: err}
		}
		for _, axis := range c.Axes {
			for _, n := range nodes {
				set[axis.Dof(n)] = struct{}{}
			}
		}
	}
	dofs := make([]int, 0, len(set))
	for d := range set {
		dofs = append(dofs, d)
	}
	sort.Ints(dofs)
	return dofs, nil
}

// ConstrainedNodes returns the sorted, unique nodes touched by any constraint
func (r *Resolver) ConstrainedNodes(m *mesh.Mesh) ([]int, error) {
	set := make(map[int]struct{})
	for i, c := range r.spec.Constraints {
		nodes, err := c.Selection.SelectNodes(m)
		if err != nil {
			return nil, &ValidationError{Section: "fixed", Index: i, Err: err}
		}
		for _, n := range nodes {
			set[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// ForceVector assembles the global force vector of length 2*NumNodes.
// Point loads put the full magnitude on each selected node; edge loads split
// the magnitude evenly so the nodal values sum to it. Entries hitting the
// same DOF add up. On error no vector is returned.
func (r *Resolver) ForceVector(m *mesh.Mesh) (*mat.VecDense, error) {
	if !m.IsGenerated() {
		return nil, mesh.ErrNotGenerated
	}
	f := make([]float64, m.NumDofs())
	err := r.eachNodalLoad(m, func(node int, axis Axis, value float64) {
		f[axis.Dof(node)] += value
	})
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(f), f), nil
}

// NodalLoad is the force acting on one node after distribution
type NodalLoad struct {
	Node   int
	Fx, Fy float64
}

// NodalLoads lists the accumulated force on every loaded node, sorted by node
func (r *Resolver) NodalLoads(m *mesh.Mesh) ([]NodalLoad, error) {
	acc := make(map[int]*NodalLoad)
	err := r.eachNodalLoad(m, func(node int, axis Axis, value float64) {
		nl, ok := acc[node]
		if !ok {
			nl = &NodalLoad{Node: node}
			acc[node] = nl
		}
		if axis == AxisX {
			nl.Fx += value
		} else {
			nl.Fy += value
		}
	})
	if err != nil {
		return nil, err
	}
	out := make([]NodalLoad, 0, len(acc))
	for _, nl := range acc {
		out = append(out, *nl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out, nil
}

// eachNodalLoad resolves every load entry and reports each nodal
// contribution. All entries are resolved before the first report, so apply
// is never called when an error is returned.
func (r *Resolver) eachNodalLoad(m *mesh.Mesh, apply func(node int, axis Axis, value float64)) error {
	type resolved struct {
		nodes []int
		value float64
		axis  Axis
	}
	entries := make([]resolved, 0, len(r.spec.Loads))

	for i, l := range r.spec.Loads {
		nodes, err := l.Selection.SelectNodes(m)
		if err != nil {
			return &ValidationError{Section: "loads", Index: i, Err: err}
		}
		if len(nodes) == 0 {
			if r.spec.OnEmptySelection == OnEmptyError {
				return &ValidationError{Section: "loads", Index: i,
					Err: fmt.Errorf("%w: %v", ErrEmptySelection, l.Selection)}
			}
			continue
		}

		var value float64
		switch l.Kind {
		case PointLoad:
			value = l.Magnitude
		case EdgeLoad:
			value = l.Magnitude / float64(len(nodes))
		default:
			return &ValidationError{Section: "loads", Index: i,
				Err: fmt.Errorf("%w: %v", ErrUnsupportedLoadKind, l.Kind)}
		}
		entries = append(entries, resolved{nodes: nodes, value: value, axis: l.Axis})
	}

	for _, e := range entries {
		for _, n := range e.nodes {
			apply(n, e.axis, e.value)
		}
	}
	return nil
}
