package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/fglopt/element"
	"gonum.org/v1/gonum/mat"
)

// Boundary identifies one of the four sides of the rectangular domain
type Boundary uint8

const (
	Interior Boundary = iota
	Bottom
	Right
	Top
	Left
)

func (b Boundary) String() string {
	switch b {
	case Bottom:
		return "bottom"
	case Right:
		return "right"
	case Top:
		return "top"
	case Left:
		return "left"
	}
	return "interior"
}

// EdgeRef names edge f of element k
type EdgeRef struct {
	Element int
	Edge    int
}

// buildConnectivity fills EToE/EToF from the grid arithmetic. Edges on the
// domain boundary connect to themselves.
func (m *Mesh) buildConnectivity() {
	K := m.NumElements()
	m.eToE = make([][4]int, K)
	m.eToF = make([][4]int, K)

	for ey := 0; ey < m.ny; ey++ {
		for ex := 0; ex < m.nx; ex++ {
			k := m.ElementID(ex, ey)
			for f := 0; f < 4; f++ {
				// Self-connection by default
				m.eToE[k][f] = k
				m.eToF[k][f] = f
			}
			if ey > 0 {
				m.connect(k, element.EdgeBottom, m.ElementID(ex, ey-1))
			}
			if ex < m.nx-1 {
				m.connect(k, element.EdgeRight, m.ElementID(ex+1, ey))
			}
			if ey < m.ny-1 {
				m.connect(k, element.EdgeTop, m.ElementID(ex, ey+1))
			}
			if ex > 0 {
				m.connect(k, element.EdgeLeft, m.ElementID(ex-1, ey))
			}
		}
	}
}

func (m *Mesh) connect(k, f, neighbor int) {
	m.eToE[k][f] = neighbor
	m.eToF[k][f] = element.OppositeEdge(f)
}

// Neighbor returns the element and edge across edge f of element k. The
// boolean is false on the domain boundary.
func (m *Mesh) Neighbor(k, f int) (nbr, nbrEdge int, ok bool) {
	if !m.IsGenerated() || k < 0 || k >= len(m.eToE) || f < 0 || f > 3 {
		return -1, -1, false
	}
	nbr, nbrEdge = m.eToE[k][f], m.eToF[k][f]
	if nbr == k {
		return -1, -1, false
	}
	return nbr, nbrEdge, true
}

// EdgeBoundary classifies edge f of element k
func (m *Mesh) EdgeBoundary(k, f int) Boundary {
	if !m.IsGenerated() || k < 0 || k >= len(m.eToE) || f < 0 || f > 3 || m.eToE[k][f] != k {
		return Interior
	}
	switch f {
	case element.EdgeBottom:
		return Bottom
	case element.EdgeRight:
		return Right
	case element.EdgeTop:
		return Top
	default:
		return Left
	}
}

// BoundaryEdges lists every element edge lying on the domain boundary
func (m *Mesh) BoundaryEdges() []EdgeRef {
	if !m.IsGenerated() {
		return nil
	}
	var out []EdgeRef
	for k := range m.eToE {
		for f := 0; f < 4; f++ {
			if m.EdgeBoundary(k, f) != Interior {
				out = append(out, EdgeRef{Element: k, Edge: f})
			}
		}
	}
	return out
}

// Edges returns each geometric edge of the mesh exactly once as a node pair.
// Interior edges shared by two elements are emitted by the lower element id.
func (m *Mesh) Edges() [][2]int {
	if !m.IsGenerated() {
		return nil
	}
	geom := m.refElement.GetReferenceGeometry()
	out := make([][2]int, 0, m.nx*(m.ny+1)+m.ny*(m.nx+1))
	for k, verts := range m.eToV {
		for f, pts := range geom.EdgePoints {
			if nbr, _, ok := m.Neighbor(k, f); ok && nbr < k {
				continue
			}
			out = append(out, [2]int{verts[pts[0]], verts[pts[1]]})
		}
	}
	return out
}

// Jacobian returns the 2×2 matrix ∂(x,y)/∂(r,s) of element k evaluated at
// reference point (r,s)
func (m *Mesh) Jacobian(k int, r, s float64) (*mat.Dense, error) {
	verts, err := m.ElementNodes(k)
	if err != nil {
		return nil, err
	}
	xy := mat.NewDense(4, 2, nil)
	for i, n := range verts {
		xy.Set(i, 0, m.coords.At(n, 0))
		xy.Set(i, 1, m.coords.At(n, 1))
	}
	var J mat.Dense
	J.Mul(m.refElement.ShapeDerivatives(r, s), xy)
	return &J, nil
}

// MapToPhysical maps reference point (r,s) of element k to (x,y) through the
// bilinear shape functions
func (m *Mesh) MapToPhysical(k int, r, s float64) (x, y float64, err error) {
	verts, err := m.ElementNodes(k)
	if err != nil {
		return 0, 0, err
	}
	n := m.refElement.ShapeFunctions(r, s)
	for i, v := range verts {
		x += n.AtVec(i) * m.coords.At(v, 0)
		y += n.AtVec(i) * m.coords.At(v, 1)
	}
	return x, y, nil
}

// Centroid is the image of the reference origin
func (m *Mesh) Centroid(k int) (x, y float64, err error) {
	return m.MapToPhysical(k, 0, 0)
}

// ElementArea integrates det(J) over the reference square with 2×2 Gauss points
func (m *Mesh) ElementArea(k int) (float64, error) {
	g := 1 / math.Sqrt(3)
	var area float64
	for _, r := range []float64{-g, g} {
		for _, s := range []float64{-g, g} {
			J, err := m.Jacobian(k, r, s)
			if err != nil {
				return 0, err
			}
			detJ := mat.Det(J)
			if detJ <= 0 {
				return 0, fmt.Errorf("element %d: non-positive Jacobian %g", k, detJ)
			}
			area += detJ
		}
	}
	return area, nil
}
