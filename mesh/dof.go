package mesh

// DofsPerNode is the number of displacement unknowns carried by every node
const DofsPerNode = 2

// DofX is the global index of the x-displacement of node n
func DofX(n int) int { return DofsPerNode * n }

// DofY is the global index of the y-displacement of node n
func DofY(n int) int { return DofsPerNode*n + 1 }

// NumDofs is the size of the global displacement (and force) vector
func (m *Mesh) NumDofs() int { return DofsPerNode * m.NumNodes() }

// ElementDofs returns the 8 global DOFs of element k in local node order,
// interleaved as [ux0, uy0, ux1, uy1, ...]
func (m *Mesh) ElementDofs(k int) ([8]int, error) {
	var dofs [8]int
	verts, err := m.ElementNodes(k)
	if err != nil {
		return dofs, err
	}
	for i, n := range verts {
		dofs[2*i] = DofX(n)
		dofs[2*i+1] = DofY(n)
	}
	return dofs, nil
}
