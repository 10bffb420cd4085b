// Package topopt assembles the inputs of a topology optimization run. The
// optimizer itself is not implemented; Run reports the problem and stops.
package topopt

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/notargets/fglopt/config"
	"github.com/notargets/fglopt/logging"
	"github.com/notargets/fglopt/mesh"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// ErrMeshArea is returned when the element areas do not add up to the domain
var ErrMeshArea = errors.New("topopt: element areas do not cover the domain")

// Problem is everything a density-based optimizer needs before assembly
type Problem struct {
	Mesh           *mesh.Mesh
	FixedDofs      []int
	Force          *mat.VecDense
	Material       config.Material
	VolumeFraction float64

	ElementDofs [][8]int   // global DOFs of each element, for assembly
	Centroids   *mat.Dense // [NumElements × 2] element centres
	Areas       []float64
	Density     []float64 // one design variable per element, starts at VolumeFraction
}

// Prepare builds the mesh and resolves the boundary conditions of cfg
func Prepare(cfg *config.Config) (*Problem, error) {
	m, err := cfg.BuildMesh()
	if err != nil {
		return nil, fmt.Errorf("topopt: building mesh: %w", err)
	}
	r, err := cfg.Resolver()
	if err != nil {
		return nil, fmt.Errorf("topopt: boundary conditions: %w", err)
	}
	fixed, err := r.ConstrainedDofs(m)
	if err != nil {
		return nil, fmt.Errorf("topopt: constrained dofs: %w", err)
	}
	f, err := r.ForceVector(m)
	if err != nil {
		return nil, fmt.Errorf("topopt: force vector: %w", err)
	}
	p := &Problem{
		Mesh:           m,
		FixedDofs:      fixed,
		Force:          f,
		Material:       cfg.Material(),
		VolumeFraction: cfg.VolumeFraction(),
	}
	if err := p.buildElements(); err != nil {
		return nil, err
	}
	return p, nil
}

// buildElements fills the per-element tables and checks that the element
// areas sum to lx*ly
func (p *Problem) buildElements() error {
	K := p.Mesh.NumElements()
	p.ElementDofs = make([][8]int, K)
	p.Centroids = mat.NewDense(K, 2, nil)
	p.Areas = make([]float64, K)
	p.Density = make([]float64, K)

	for k := 0; k < K; k++ {
		dofs, err := p.Mesh.ElementDofs(k)
		if err != nil {
			return fmt.Errorf("topopt: element %d: %w", k, err)
		}
		x, y, err := p.Mesh.Centroid(k)
		if err != nil {
			return fmt.Errorf("topopt: element %d: %w", k, err)
		}
		area, err := p.Mesh.ElementArea(k)
		if err != nil {
			return fmt.Errorf("topopt: element %d: %w", k, err)
		}
		p.ElementDofs[k] = dofs
		p.Centroids.Set(k, 0, x)
		p.Centroids.Set(k, 1, y)
		p.Areas[k] = area
		p.Density[k] = p.VolumeFraction
	}

	domain := p.Mesh.Lx() * p.Mesh.Ly()
	if total := floats.Sum(p.Areas); !scalar.EqualWithinRel(total, domain, 1e-9) {
		return fmt.Errorf("%w: %g != %g", ErrMeshArea, total, domain)
	}
	return nil
}

// Volume is the material volume of the current density field
func (p *Problem) Volume() float64 {
	return floats.Dot(p.Density, p.Areas)
}

// FreeDofs returns the DOFs not fixed by any constraint, ascending
func (p *Problem) FreeDofs() []int {
	free := make([]int, 0, p.Mesh.NumDofs()-len(p.FixedDofs))
	j := 0
	for d := 0; d < p.Mesh.NumDofs(); d++ {
		if j < len(p.FixedDofs) && p.FixedDofs[j] == d {
			j++
			continue
		}
		free = append(free, d)
	}
	return free
}

// TotalLoad sums the x and y components of the force vector
func (p *Problem) TotalLoad() (fx, fy float64) {
	for i := 0; i < p.Force.Len(); i++ {
		if i%mesh.DofsPerNode == 0 {
			fx += p.Force.AtVec(i)
		} else {
			fy += p.Force.AtVec(i)
		}
	}
	return fx, fy
}

// Run echoes the optimization settings to w. Mesh and boundary condition
// problems are reported but do not stop the echo.
func Run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	log := logging.FromContext(ctx)
	mp := cfg.MeshParams()
	mtl := cfg.Material()

	fmt.Fprintln(w, "Starting topology optimization")
	fmt.Fprintf(w, "  Volume fraction: %v\n", cfg.VolumeFraction())
	fmt.Fprintf(w, "  Mesh resolution: %d\n", mp.Nx)
	fmt.Fprintf(w, "  Young's modulus: %.2g\n", mtl.E)
	fmt.Fprintf(w, "  Poisson's ratio: %v\n", mtl.Nu)

	p, err := Prepare(cfg)
	if err != nil {
		log.Warn("problem setup failed", "err", err)
		fmt.Fprintf(w, "  Problem setup failed: %v\n", err)
	} else {
		fx, fy := p.TotalLoad()
		log.Debug("problem prepared",
			"nodes", p.Mesh.NumNodes(), "elements", p.Mesh.NumElements(),
			"fixed_dofs", len(p.FixedDofs), "free_dofs", len(p.FreeDofs()))
		fmt.Fprintf(w, "  Mesh: %d x %d elements, %d nodes\n", mp.Nx, mp.Ny, p.Mesh.NumNodes())
		fmt.Fprintf(w, "  Constrained DOFs: %d of %d\n", len(p.FixedDofs), p.Mesh.NumDofs())
		fmt.Fprintf(w, "  Design variables: %d, initial volume %.4g\n", len(p.Density), p.Volume())
		fmt.Fprintf(w, "  Total load: fx=%g fy=%g\n", fx, fy)
	}

	fmt.Fprintln(w, "...Optimization not implemented yet (stub)")
	return ctx.Err()
}
