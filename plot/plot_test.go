package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/fglopt/bc"
	"github.com/notargets/fglopt/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cantilever(t *testing.T) *bc.Resolver {
	t.Helper()
	r, err := bc.NewResolver(bc.Spec{
		Constraints: []bc.Constraint{
			{Selection: bc.EdgeSelector{Edge: bc.LeftEdge}, Axes: []bc.Axis{bc.AxisX, bc.AxisY}},
		},
		Loads: []bc.Load{
			{Kind: bc.EdgeLoad, Selection: bc.EdgeSelector{Edge: bc.RightEdge}, Axis: bc.AxisY, Magnitude: -1.0},
		},
	})
	require.NoError(t, err)
	return r
}

func requireArtifact(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestParseRenderMode(t *testing.T) {
	tests := []struct {
		in   string
		want RenderMode
	}{
		{"", Headless},
		{"headless", Headless},
		{"Interactive", Interactive},
		{" interactive ", Interactive},
	}
	for _, tt := range tests {
		got, err := ParseRenderMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := ParseRenderMode("tk")
	assert.Error(t, err)
}

func TestMeshHeadlessSavesArtifact(t *testing.T) {
	m, err := mesh.NewStructured(4, 4, 1, 1)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "artifacts", "mesh.png")
	path, err := Mesh(m, Options{Mode: Headless, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	requireArtifact(t, out)
}

func TestBoundaryConditionsHeadlessSavesArtifact(t *testing.T) {
	m, err := mesh.NewStructured(4, 4, 1, 1)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "artifacts", "bc_overlay.png")
	path, err := BoundaryConditions(cantilever(t), m, Options{OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, path)
	requireArtifact(t, out)
}

func TestBoundaryConditionsHeadlessWideDomain(t *testing.T) {
	m, err := mesh.NewStructured(8, 2, 4, 1)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "wide.png")
	_, err = BoundaryConditions(cantilever(t), m, Options{Mode: Headless, OutputPath: out})
	require.NoError(t, err)
	requireArtifact(t, out)
}

func TestMeshInteractive(t *testing.T) {
	m, err := mesh.NewStructured(2, 1, 2, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	path, err := Mesh(m, Options{Mode: Interactive, Out: &buf})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "Structured Mesh: 2 x 1 elements over 2 x 1\n  + + +\n  + + +\n", buf.String())
}

func TestBoundaryConditionsInteractive(t *testing.T) {
	m, err := mesh.NewStructured(2, 2, 1, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	path, err := BoundaryConditions(cantilever(t), m, Options{Mode: Interactive, Out: &buf, Title: "BC"})
	require.NoError(t, err)
	assert.Empty(t, path)

	out := buf.String()
	assert.Contains(t, out, "BC: 2 x 2 elements over 1 x 1\n  # + v\n  # + v\n  # + v\n")
	assert.Contains(t, out, "supports: 3 nodes")
	assert.Contains(t, out, "load node 8 (1, 1): fx=0 fy=-0.3333333333333333")
}

func TestInteractiveSupportAndLoadOnSameNode(t *testing.T) {
	m, err := mesh.NewStructured(1, 1, 1, 1)
	require.NoError(t, err)
	r, err := bc.NewResolver(bc.Spec{
		Constraints: []bc.Constraint{{Selection: bc.ExplicitNodes{0}, Axes: []bc.Axis{bc.AxisX}}},
		Loads: []bc.Load{
			{Selection: bc.ExplicitNodes{0}, Axis: bc.AxisY, Magnitude: 1},
			{Selection: bc.ExplicitNodes{3}, Axis: bc.AxisX, Magnitude: -2},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = BoundaryConditions(r, m, Options{Mode: Interactive, Out: &buf})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "  + <\n  * +\n")
}

func TestLoadGlyph(t *testing.T) {
	assert.Equal(t, byte('>'), loadGlyph(bc.NodalLoad{Fx: 1}))
	assert.Equal(t, byte('<'), loadGlyph(bc.NodalLoad{Fx: -1, Fy: 0.5}))
	assert.Equal(t, byte('^'), loadGlyph(bc.NodalLoad{Fy: 2}))
	assert.Equal(t, byte('v'), loadGlyph(bc.NodalLoad{Fy: -2}))
	assert.Equal(t, byte('o'), loadGlyph(bc.NodalLoad{}))
}

func TestUngeneratedMesh(t *testing.T) {
	_, err := Mesh(&mesh.Mesh{}, Options{})
	assert.ErrorIs(t, err, mesh.ErrNotGenerated)
	_, err = BoundaryConditions(cantilever(t), nil, Options{})
	assert.ErrorIs(t, err, mesh.ErrNotGenerated)
}

func TestUnsupportedMode(t *testing.T) {
	m, err := mesh.NewStructured(1, 1, 1, 1)
	require.NoError(t, err)
	_, err = Mesh(m, Options{Mode: "window"})
	assert.ErrorContains(t, err, "unsupported render mode")
}
