package mesh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/fglopt/element"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidDimensions is returned for non-positive element counts or lengths.
	ErrInvalidDimensions = errors.New("mesh: invalid dimensions")

	// ErrOutOfBounds is returned when a node or element index is outside the mesh.
	ErrOutOfBounds = errors.New("mesh: index out of bounds")

	// ErrNotGenerated is returned when querying a mesh that was never built.
	ErrNotGenerated = errors.New("mesh: nodes and elements not generated")
)

// Mesh is a structured rectilinear mesh of Quad4 elements covering
// [0,Lx] × [0,Ly]. It is fully built by NewStructured and never mutated
// afterwards, so a *Mesh can be shared freely between readers.
//
// Node ordering is row-major over y, then x:
//
//	node = iy*(nx+1) + ix
//
// Element ordering is row-major over y, then x, with local nodes
// [bottom-left, bottom-right, top-right, top-left].
type Mesh struct {
	nx, ny int
	lx, ly float64

	refElement *element.Quad4

	coords *mat.Dense // [NumNodes × 2], column 0 is x, column 1 is y
	eToV   [][4]int   // Element to vertex (node) connectivity

	// Element-to-element connectivity, indexed by Quad4 edge number.
	// Boundary edges reference the element itself, as in EToE[k][f] == k.
	eToE [][4]int
	eToF [][4]int // Edge of the neighbour that matches edge f of element k
}

// NewStructured builds the mesh for nx × ny elements over an lx × ly domain
func NewStructured(nx, ny int, lx, ly float64) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: nx=%d, ny=%d must be >= 1", ErrInvalidDimensions, nx, ny)
	}
	if !(lx > 0) || !(ly > 0) {
		return nil, fmt.Errorf("%w: lx=%g, ly=%g must be > 0", ErrInvalidDimensions, lx, ly)
	}

	m := &Mesh{
		nx:         nx,
		ny:         ny,
		lx:         lx,
		ly:         ly,
		refElement: element.NewQuad4(),
	}
	m.generateNodes()
	m.generateElements()
	m.buildConnectivity()
	return m, nil
}

func (m *Mesh) Nx() int     { return m.nx }
func (m *Mesh) Ny() int     { return m.ny }
func (m *Mesh) Lx() float64 { return m.lx }
func (m *Mesh) Ly() float64 { return m.ly }

// NumNodes is (nx+1)*(ny+1)
func (m *Mesh) NumNodes() int { return (m.nx + 1) * (m.ny + 1) }

// NumElements is nx*ny
func (m *Mesh) NumElements() int { return m.nx * m.ny }

// IsGenerated is false for a nil or zero-value Mesh
func (m *Mesh) IsGenerated() bool { return m != nil && m.coords != nil && m.eToV != nil }

// ReferenceElement returns the element type used by every cell of the mesh
func (m *Mesh) ReferenceElement() element.ReferenceElement { return m.refElement }

// generateNodes places nodes on a regular grid. The far boundary is pinned
// to exactly lx (ly) so boundary nodes carry the nominal value.
func (m *Mesh) generateNodes() {
	xs := floats.Span(make([]float64, m.nx+1), 0, m.lx)
	ys := floats.Span(make([]float64, m.ny+1), 0, m.ly)
	xs[m.nx], ys[m.ny] = m.lx, m.ly

	m.coords = mat.NewDense(m.NumNodes(), 2, nil)
	for iy := 0; iy <= m.ny; iy++ {
		for ix := 0; ix <= m.nx; ix++ {
			n := m.NodeID(ix, iy)
			m.coords.Set(n, 0, xs[ix])
			m.coords.Set(n, 1, ys[iy])
		}
	}
}

func (m *Mesh) generateElements() {
	npx := m.nx + 1 // nodes per row
	m.eToV = make([][4]int, 0, m.NumElements())
	for ey := 0; ey < m.ny; ey++ {
		for ex := 0; ex < m.nx; ex++ {
			m.eToV = append(m.eToV, [4]int{
				ey*npx + ex,         // bottom-left
				ey*npx + ex + 1,     // bottom-right
				(ey+1)*npx + ex + 1, // top-right
				(ey+1)*npx + ex,     // top-left
			})
		}
	}
}

// NodeID maps grid position (ix, iy) to its node index
func (m *Mesh) NodeID(ix, iy int) int {
	return iy*(m.nx+1) + ix
}

// ElementID maps grid cell (ex, ey) to its element index
func (m *Mesh) ElementID(ex, ey int) int {
	return ey*m.nx + ex
}

// NodePosition returns the (x, y) coordinates of a node
func (m *Mesh) NodePosition(nodeID int) (x, y float64, err error) {
	if !m.IsGenerated() {
		return 0, 0, ErrNotGenerated
	}
	if nodeID < 0 || nodeID >= m.NumNodes() {
		return 0, 0, fmt.Errorf("%w: node %d not in [0, %d)", ErrOutOfBounds, nodeID, m.NumNodes())
	}
	return m.coords.At(nodeID, 0), m.coords.At(nodeID, 1), nil
}

// ElementNodes returns the four node indices of an element, counter-clockwise
// from the bottom-left corner
func (m *Mesh) ElementNodes(elemID int) ([4]int, error) {
	if !m.IsGenerated() {
		return [4]int{}, ErrNotGenerated
	}
	if elemID < 0 || elemID >= m.NumElements() {
		return [4]int{}, fmt.Errorf("%w: element %d not in [0, %d)", ErrOutOfBounds, elemID, m.NumElements())
	}
	return m.eToV[elemID], nil
}

// NodeCoords returns a copy of the [NumNodes × 2] coordinate matrix
func (m *Mesh) NodeCoords() mat.Matrix {
	if !m.IsGenerated() {
		return nil
	}
	return mat.DenseCopyOf(m.coords)
}

// X returns a copy of the node x coordinates
func (m *Mesh) X() []float64 {
	if !m.IsGenerated() {
		return nil
	}
	return mat.Col(nil, 0, m.coords)
}

// Y returns a copy of the node y coordinates
func (m *Mesh) Y() []float64 {
	if !m.IsGenerated() {
		return nil
	}
	return mat.Col(nil, 1, m.coords)
}

// ElementNodeList returns a copy of the element to node connectivity
func (m *Mesh) ElementNodeList() [][4]int {
	if !m.IsGenerated() {
		return nil
	}
	out := make([][4]int, len(m.eToV))
	copy(out, m.eToV)
	return out
}

// String returns a summary of the mesh properties
func (m *Mesh) String() string {
	var sb strings.Builder

	sb.WriteString("=== Structured Mesh Summary ===\n")
	if !m.IsGenerated() {
		sb.WriteString("  (not generated)\n")
		return sb.String()
	}

	props := m.refElement.GetProperties()
	sb.WriteString("\n--- Reference Element ---\n")
	sb.WriteString(fmt.Sprintf("  Name: %s (%s)\n", props.Name, props.ShortName))
	sb.WriteString(fmt.Sprintf("  Type: %v\n", props.Type))
	sb.WriteString(fmt.Sprintf("  Nodes per element (Np): %d\n", props.Np))

	sb.WriteString("\n--- Domain ---\n")
	sb.WriteString(fmt.Sprintf("  Elements: %d × %d\n", m.nx, m.ny))
	sb.WriteString(fmt.Sprintf("  Extent: [0, %g] × [0, %g]\n", m.lx, m.ly))
	sb.WriteString(fmt.Sprintf("  Spacing: dx=%.4g, dy=%.4g\n", m.lx/float64(m.nx), m.ly/float64(m.ny)))

	sb.WriteString("\n--- Counts ---\n")
	sb.WriteString(fmt.Sprintf("  Number of nodes: %d\n", m.NumNodes()))
	sb.WriteString(fmt.Sprintf("  Number of elements: %d\n", m.NumElements()))
	sb.WriteString(fmt.Sprintf("  Boundary edges: %d\n", len(m.BoundaryEdges())))
	sb.WriteString(fmt.Sprintf("  Total degrees of freedom: %d\n", m.NumDofs()))

	sb.WriteString("\n===============================\n")
	return sb.String()
}
