package element

import (
	"gonum.org/v1/gonum/mat"
)

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
)

// GeometryType identifies the shape of an element
type GeometryType uint8

const (
	Tri       GeometryType = iota // Triangle
	Rectangle                     // Rectangle/Quadrilateral
	Line                          // Line segment
)

func (g GeometryType) String() string {
	switch g {
	case Tri:
		return "Tri"
	case Rectangle:
		return "Rectangle"
	case Line:
		return "Line"
	}
	return "Unknown"
}

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string         // Full descriptive name (e.g., "Bilinear Quadrilateral")
	ShortName  string         // Abbreviated name (e.g., "Q4")
	Type       GeometryType   // Element shape
	Order      int            // Polynomial order
	Np         int            // Total number of nodes in element
	NEp        int            // Number of nodes per edge
	NVp        int            // Number of vertex nodes
	NEdges     int            // Number of edges in each element
	Dimensions Dimensionality // Spatial dimension
	DofsPerNp  int            // Displacement unknowns carried by each node
}

// ReferenceGeometry defines the layout of nodes in reference space [-1,1]^d
type ReferenceGeometry struct {
	// Node coordinates in reference space, length Np each
	R, S []float64

	// Node classification by topological entity
	VertexPoints []int   // Indices of nodes located at vertices
	EdgePoints   [][]int // [edge_num][point_indices] - nodes on each edge, counter-clockwise
}

// ReferenceElement defines element properties and operators in reference space
type ReferenceElement interface {
	GetProperties() ElementProperties

	GetReferenceGeometry() ReferenceGeometry

	// ShapeFunctions evaluates the Np nodal basis functions at (r,s)
	ShapeFunctions(r, s float64) *mat.VecDense

	// ShapeDerivatives returns the [2 × Np] matrix of ∂N/∂r (row 0) and ∂N/∂s (row 1) at (r,s)
	ShapeDerivatives(r, s float64) *mat.Dense
}
