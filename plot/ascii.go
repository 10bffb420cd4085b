package plot

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/notargets/fglopt/bc"
	"github.com/notargets/fglopt/mesh"
)

const (
	glyphNode        = '+'
	glyphSupport     = '#'
	glyphSupportLoad = '*'
	glyphZeroLoad    = 'o'
)

type overlay struct {
	supports []int
	loads    []bc.NodalLoad
}

// writeOverlay prints one character per node, top row first, so the picture
// has the same orientation as the domain
func writeOverlay(w io.Writer, title string, m *mesh.Mesh, ov overlay) error {
	nx, ny := m.Nx(), m.Ny()
	grid := make([][]byte, ny+1)
	for iy := range grid {
		grid[iy] = []byte(strings.Repeat(string(glyphNode), nx+1))
	}
	at := func(n int) *byte { return &grid[n/(nx+1)][n%(nx+1)] }

	for _, n := range ov.supports {
		*at(n) = glyphSupport
	}
	for _, l := range ov.loads {
		g := at(l.Node)
		if *g == glyphSupport {
			*g = glyphSupportLoad
		} else {
			*g = loadGlyph(l)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d x %d elements over %g x %g\n", title, nx, ny, m.Lx(), m.Ly())
	for iy := ny; iy >= 0; iy-- {
		sb.WriteString("  ")
		for ix, c := range grid[iy] {
			if ix > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}

	if len(ov.supports) > 0 || len(ov.loads) > 0 {
		sb.WriteString("  legend: + node, # support, > < ^ v load, * support and load\n")
		fmt.Fprintf(&sb, "  supports: %d nodes\n", len(ov.supports))
		for _, l := range ov.loads {
			x, y, err := m.NodePosition(l.Node)
			if err != nil {
				return err
			}
			fmt.Fprintf(&sb, "  load node %d (%g, %g): fx=%g fy=%g\n", l.Node, x, y, l.Fx, l.Fy)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// loadGlyph points along the dominant force component
func loadGlyph(l bc.NodalLoad) byte {
	switch {
	case l.Fx == 0 && l.Fy == 0:
		return glyphZeroLoad
	case math.Abs(l.Fx) >= math.Abs(l.Fy):
		if l.Fx > 0 {
			return '>'
		}
		return '<'
	case l.Fy > 0:
		return '^'
	}
	return 'v'
}
