package element

import (
	"gonum.org/v1/gonum/mat"
)

// Edge numbering of the Quad4, counter-clockwise from the bottom edge
const (
	EdgeBottom = iota
	EdgeRight
	EdgeTop
	EdgeLeft
)

// Quad4 is the bilinear four node quadrilateral. Local nodes are ordered
// counter-clockwise from the bottom-left corner:
//
//	3 ---- 2
//	|      |
//	0 ---- 1
type Quad4 struct {
	props ElementProperties
	geom  ReferenceGeometry
}

func NewQuad4() *Quad4 {
	return &Quad4{
		props: ElementProperties{
			Name:       "Bilinear Quadrilateral",
			ShortName:  "Q4",
			Type:       Rectangle,
			Order:      1,
			Np:         4,
			NEp:        2,
			NVp:        4,
			NEdges:     4,
			Dimensions: D2,
			DofsPerNp:  2,
		},
		geom: ReferenceGeometry{
			R:            []float64{-1, 1, 1, -1},
			S:            []float64{-1, -1, 1, 1},
			VertexPoints: []int{0, 1, 2, 3},
			EdgePoints: [][]int{
				EdgeBottom: {0, 1},
				EdgeRight:  {1, 2},
				EdgeTop:    {2, 3},
				EdgeLeft:   {3, 0},
			},
		},
	}
}

func (q *Quad4) GetProperties() ElementProperties { return q.props }

func (q *Quad4) GetReferenceGeometry() ReferenceGeometry { return q.geom }

// ShapeFunctions returns N_i(r,s) = (1 + r r_i)(1 + s s_i)/4
func (q *Quad4) ShapeFunctions(r, s float64) *mat.VecDense {
	n := mat.NewVecDense(q.props.Np, nil)
	for i := 0; i < q.props.Np; i++ {
		ri, si := q.geom.R[i], q.geom.S[i]
		n.SetVec(i, 0.25*(1+r*ri)*(1+s*si))
	}
	return n
}

func (q *Quad4) ShapeDerivatives(r, s float64) *mat.Dense {
	d := mat.NewDense(2, q.props.Np, nil)
	for i := 0; i < q.props.Np; i++ {
		ri, si := q.geom.R[i], q.geom.S[i]
		d.Set(0, i, 0.25*ri*(1+s*si))
		d.Set(1, i, 0.25*si*(1+r*ri))
	}
	return d
}

// OppositeEdge returns the edge of a neighbouring Quad4 that shares edge f
// in a structured grid
func OppositeEdge(f int) int {
	return (f + 2) % 4
}
