package bc

import (
	"errors"
	"testing"

	"github.com/notargets/fglopt/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newMesh(t *testing.T, nx, ny int, lx, ly float64) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewStructured(nx, ny, lx, ly)
	require.NoError(t, err)
	return m
}

func newResolver(t *testing.T, spec Spec) *Resolver {
	t.Helper()
	r, err := NewResolver(spec)
	require.NoError(t, err)
	return r
}

func TestEdgeSelectors(t *testing.T) {
	m := newMesh(t, 2, 2, 2.0, 2.0)

	// 6 7 8
	// 3 4 5
	// 0 1 2
	tests := []struct {
		edge Edge
		want []int
	}{
		{LeftEdge, []int{0, 3, 6}},
		{RightEdge, []int{2, 5, 8}},
		{BottomEdge, []int{0, 1, 2}},
		{TopEdge, []int{6, 7, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.edge.String(), func(t *testing.T) {
			got, err := EdgeSelector{Edge: tt.edge}.SelectNodes(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEdgeSelectorInexactLength(t *testing.T) {
	// 0.1 * 3 is not exactly representable; every right edge node must still match
	m := newMesh(t, 3, 3, 0.3, 0.7)
	got, err := EdgeSelector{Edge: RightEdge}.SelectNodes(m)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 11, 15}, got)

	got, err = EdgeSelector{Edge: TopEdge}.SelectNodes(m)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 13, 14, 15}, got)
}

func TestExplicitNodesDedupSort(t *testing.T) {
	m := newMesh(t, 2, 2, 1, 1)
	got, err := ExplicitNodes{5, 1, 5, 0}.SelectNodes(m)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 5}, got)
}

func TestConstrainedDofsLeftEdge(t *testing.T) {
	m := newMesh(t, 2, 1, 2, 1)
	r := newResolver(t, Spec{
		Constraints: []Constraint{
			{Selection: EdgeSelector{Edge: LeftEdge}, Axes: []Axis{AxisX, AxisY}},
			// overlapping entry must not produce duplicates
			{Selection: ExplicitNodes{3, 0}, Axes: []Axis{AxisY, AxisX}},
		},
	})

	dofs, err := r.ConstrainedDofs(m)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 6, 7}, dofs)
}

func TestConstrainedDofsSelectorAndExplicitNodes(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Constraints: []Constraint{
			{Selection: EdgeSelector{Edge: LeftEdge}, Axes: []Axis{AxisX, AxisY}},
			{Selection: EdgeSelector{Edge: TopEdge}, Axes: []Axis{AxisY}},
			{Selection: ExplicitNodes{4}, Axes: []Axis{AxisX}},
		},
	})

	dofs, err := r.ConstrainedDofs(m)
	require.NoError(t, err)
	// left_edge nodes [0, 3, 6] -> {0,1,6,7,12,13}
	// top_edge nodes [6, 7, 8] uy -> {13,15,17}
	// node 4 ux -> {8}
	assert.Equal(t, []int{0, 1, 6, 7, 8, 12, 13, 15, 17}, dofs)

	nodes, err := r.ConstrainedNodes(m)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4, 6, 7, 8}, nodes)
}

func TestPointLoadNotDistributed(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{{Kind: PointLoad, Selection: ExplicitNodes{2}, Axis: AxisX, Magnitude: 5.0}},
	})

	f, err := r.ForceVector(m)
	require.NoError(t, err)
	require.Equal(t, 2*m.NumNodes(), f.Len())

	for i := 0; i < f.Len(); i++ {
		want := 0.0
		if i == 4 {
			want = 5.0
		}
		if f.AtVec(i) != want {
			t.Errorf("f[%d] = %v, want %v", i, f.AtVec(i), want)
		}
	}
}

func TestPointLoadEveryNodeGetsFullMagnitude(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{{Kind: PointLoad, Selection: EdgeSelector{Edge: TopEdge}, Axis: AxisY, Magnitude: -2.0}},
	})

	f, err := r.ForceVector(m)
	require.NoError(t, err)
	for _, n := range []int{6, 7, 8} {
		assert.Equal(t, -2.0, f.AtVec(mesh.DofY(n)))
	}
	assert.Equal(t, -6.0, mat.Sum(f))
}

func TestEdgeLoadConservation(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{{Kind: EdgeLoad, Selection: EdgeSelector{Edge: RightEdge}, Axis: AxisY, Magnitude: -9.0}},
	})

	f, err := r.ForceVector(m)
	require.NoError(t, err)

	var sum float64
	for _, n := range []int{2, 5, 8} {
		assert.Equal(t, -3.0, f.AtVec(mesh.DofY(n)))
		sum += f.AtVec(mesh.DofY(n))
	}
	assert.Equal(t, -9.0, sum)
	assert.Equal(t, -9.0, mat.Sum(f))
}

func TestEdgeLoadUniformOnExplicitNodes(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{
			{Kind: EdgeLoad, Selection: EdgeSelector{Edge: RightEdge}, Axis: AxisY, Magnitude: -90.0},
			{Kind: EdgeLoad, Selection: ExplicitNodes{0, 1, 2}, Axis: AxisX, Magnitude: 30.0},
		},
	})

	f, err := r.ForceVector(m)
	require.NoError(t, err)

	right := []float64{f.AtVec(mesh.DofY(2)), f.AtVec(mesh.DofY(5)), f.AtVec(mesh.DofY(8))}
	assert.True(t, floats.EqualApprox(right, []float64{-30, -30, -30}, 1e-12))
	assert.InDelta(t, -90.0, floats.Sum(right), 1e-12)

	bottom := []float64{f.AtVec(mesh.DofX(0)), f.AtVec(mesh.DofX(1)), f.AtVec(mesh.DofX(2))}
	assert.True(t, floats.EqualApprox(bottom, []float64{10, 10, 10}, 1e-12))
}

func TestLoadsAreAdditive(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{
			{Kind: PointLoad, Selection: ExplicitNodes{4}, Axis: AxisX, Magnitude: 10.0},
			{Kind: PointLoad, Selection: ExplicitNodes{4}, Axis: AxisX, Magnitude: 2.5},
			{Kind: PointLoad, Selection: ExplicitNodes{4}, Axis: AxisY, Magnitude: -5.0},
		},
	})

	f, err := r.ForceVector(m)
	require.NoError(t, err)
	assert.Equal(t, 12.5, f.AtVec(8))
	assert.Equal(t, -5.0, f.AtVec(9))

	loads, err := r.NodalLoads(m)
	require.NoError(t, err)
	assert.Equal(t, []NodalLoad{{Node: 4, Fx: 12.5, Fy: -5.0}}, loads)
}

func TestOutOfBoundsNodeAbortsAssembly(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	r := newResolver(t, Spec{
		Loads: []Load{
			{Kind: PointLoad, Selection: ExplicitNodes{1}, Axis: AxisX, Magnitude: 1.0},
			{Kind: PointLoad, Selection: ExplicitNodes{0, m.NumNodes()}, Axis: AxisX, Magnitude: 1.0},
		},
	})

	f, err := r.ForceVector(m)
	assert.Nil(t, f)
	require.ErrorIs(t, err, ErrNodeOutOfBounds)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "loads", verr.Section)
	assert.Equal(t, 1, verr.Index)

	_, err = newResolver(t, Spec{
		Constraints: []Constraint{{Selection: ExplicitNodes{-1}, Axes: []Axis{AxisX}}},
	}).ConstrainedDofs(m)
	assert.ErrorIs(t, err, ErrNodeOutOfBounds)
}

func TestEmptySelectionPolicy(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	loads := []Load{
		{Kind: EdgeLoad, Selection: ExplicitNodes{}, Axis: AxisY, Magnitude: -1},
		{Kind: PointLoad, Selection: ExplicitNodes{3}, Axis: AxisY, Magnitude: -1},
	}

	f, err := newResolver(t, Spec{Loads: loads}).ForceVector(m)
	require.NoError(t, err)
	assert.Equal(t, -1.0, mat.Sum(f))

	_, err = newResolver(t, Spec{Loads: loads, OnEmptySelection: OnEmptyError}).ForceVector(m)
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestIdempotent(t *testing.T) {
	m := newMesh(t, 4, 3, 2, 1.5)
	r := newResolver(t, Spec{
		Constraints: []Constraint{{Selection: EdgeSelector{Edge: LeftEdge}, Axes: []Axis{AxisX, AxisY}}},
		Loads: []Load{
			{Kind: EdgeLoad, Selection: EdgeSelector{Edge: RightEdge}, Axis: AxisY, Magnitude: -1},
			{Kind: PointLoad, Selection: ExplicitNodes{7}, Axis: AxisX, Magnitude: 3},
		},
	})

	d1, err := r.ConstrainedDofs(m)
	require.NoError(t, err)
	d2, err := r.ConstrainedDofs(m)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	f1, err := r.ForceVector(m)
	require.NoError(t, err)
	f2, err := r.ForceVector(m)
	require.NoError(t, err)
	assert.True(t, mat.Equal(f1, f2))
}

func TestResolverCopiesSpec(t *testing.T) {
	m := newMesh(t, 2, 2, 2, 2)
	nodes := ExplicitNodes{1}
	spec := Spec{Loads: []Load{{Kind: PointLoad, Selection: nodes, Axis: AxisX, Magnitude: 1}}}
	r := newResolver(t, spec)

	nodes[0] = 100
	spec.Loads[0].Magnitude = 50

	f, err := r.ForceVector(m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f.AtVec(2))
}

func TestNewResolverRejectsIncompleteSpec(t *testing.T) {
	_, err := NewResolver(Spec{Constraints: []Constraint{{Selection: EdgeSelector{Edge: LeftEdge}}}})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewResolver(Spec{Loads: []Load{{Axis: AxisX}}})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = NewResolver(Spec{OnEmptySelection: OnEmptyError + 1})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestUngeneratedMesh(t *testing.T) {
	r := newResolver(t, Spec{
		Constraints: []Constraint{{Selection: EdgeSelector{Edge: LeftEdge}, Axes: []Axis{AxisX}}},
	})
	_, err := r.ConstrainedDofs(&mesh.Mesh{})
	assert.ErrorIs(t, err, mesh.ErrNotGenerated)

	_, err = r.ForceVector(&mesh.Mesh{})
	assert.ErrorIs(t, err, mesh.ErrNotGenerated)
}
