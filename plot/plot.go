package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/notargets/fglopt/bc"
	"github.com/notargets/fglopt/mesh"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	DefaultMeshPath = "artifacts/mesh.png"
	DefaultBCPath   = "artifacts/bc_overlay.png"
)

// Options controls one rendering call. Zero values select headless mode,
// the default artifact paths and os.Stdout.
type Options struct {
	Mode       RenderMode
	OutputPath string
	Title      string
	Out        io.Writer // interactive output
}

func (o Options) mode() RenderMode {
	if o.Mode == "" {
		return DefaultRenderMode
	}
	return o.Mode
}

func (o Options) title(def string) string {
	if o.Title == "" {
		return def
	}
	return o.Title
}

func (o Options) outputPath(def string) string {
	if o.OutputPath == "" {
		return def
	}
	return o.OutputPath
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

var (
	meshColor    = color.RGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xff}
	supportColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	loadColor    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

const (
	arrowFraction = 0.15 // longest load arrow relative to the larger domain side
	headFraction  = 0.3  // arrow head length relative to its shaft
	headAngle     = 25 * math.Pi / 180
)

// Mesh draws the element edges of m. In headless mode the PNG path is
// returned; in interactive mode the overlay goes to opts.Out and the returned
// path is empty.
func Mesh(m *mesh.Mesh, opts Options) (string, error) {
	if !m.IsGenerated() {
		return "", mesh.ErrNotGenerated
	}
	title := opts.title("Structured Mesh")

	switch mode := opts.mode(); mode {
	case Interactive:
		return "", writeOverlay(opts.out(), title, m, overlay{})
	case Headless:
	default:
		return "", fmt.Errorf("plot: unsupported render mode %q", mode)
	}

	p, err := newMeshPlot(m, title)
	if err != nil {
		return "", err
	}
	return save(p, m, opts.outputPath(DefaultMeshPath))
}

// BoundaryConditions overlays the supports and the distributed nodal loads
// resolved by r on top of the mesh
func BoundaryConditions(r *bc.Resolver, m *mesh.Mesh, opts Options) (string, error) {
	if !m.IsGenerated() {
		return "", mesh.ErrNotGenerated
	}
	supports, err := r.ConstrainedNodes(m)
	if err != nil {
		return "", err
	}
	loads, err := r.NodalLoads(m)
	if err != nil {
		return "", err
	}
	title := opts.title("Boundary Conditions")

	switch mode := opts.mode(); mode {
	case Interactive:
		return "", writeOverlay(opts.out(), title, m, overlay{supports: supports, loads: loads})
	case Headless:
	default:
		return "", fmt.Errorf("plot: unsupported render mode %q", mode)
	}

	p, err := newMeshPlot(m, title)
	if err != nil {
		return "", err
	}
	if err = addSupports(p, m, supports); err != nil {
		return "", err
	}
	if err = addLoads(p, m, loads); err != nil {
		return "", err
	}
	return save(p, m, opts.outputPath(DefaultBCPath))
}

func newMeshPlot(m *mesh.Mesh, title string) (*gplot.Plot, error) {
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Legend.Top = true

	x, y := m.X(), m.Y()
	for _, e := range m.Edges() {
		l, err := plotter.NewLine(plotter.XYs{
			{X: x[e[0]], Y: y[e[0]]},
			{X: x[e[1]], Y: y[e[1]]},
		})
		if err != nil {
			return nil, fmt.Errorf("plot: mesh edge %v: %w", e, err)
		}
		l.LineStyle.Width = vg.Points(0.5)
		l.LineStyle.Color = meshColor
		p.Add(l)
	}
	return p, nil
}

func addSupports(p *gplot.Plot, m *mesh.Mesh, nodes []int) error {
	if len(nodes) == 0 {
		return nil
	}
	x, y := m.X(), m.Y()
	pts := make(plotter.XYs, len(nodes))
	for i, n := range nodes {
		pts[i].X, pts[i].Y = x[n], y[n]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("plot: supports: %w", err)
	}
	s.GlyphStyle.Shape = draw.BoxGlyph{}
	s.GlyphStyle.Color = supportColor
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	p.Legend.Add("supports", s)
	return nil
}

// addLoads draws one arrow per loaded node, tail at the node. Arrow lengths
// are proportional to the nodal force, with the largest one spanning
// arrowFraction of the domain.
func addLoads(p *gplot.Plot, m *mesh.Mesh, loads []bc.NodalLoad) error {
	var fmax float64
	for _, l := range loads {
		fmax = math.Max(fmax, math.Hypot(l.Fx, l.Fy))
	}
	if fmax == 0 {
		return nil
	}
	scale := arrowFraction * math.Max(m.Lx(), m.Ly()) / fmax

	x, y := m.X(), m.Y()
	labelled := false
	for _, l := range loads {
		dx, dy := l.Fx*scale, l.Fy*scale
		if dx == 0 && dy == 0 {
			continue
		}
		shaft, head, err := arrow(x[l.Node], y[l.Node], dx, dy)
		if err != nil {
			return fmt.Errorf("plot: load at node %d: %w", l.Node, err)
		}
		p.Add(shaft, head)
		if !labelled {
			p.Legend.Add("loads", shaft)
			labelled = true
		}
	}
	return nil
}

func arrow(x0, y0, dx, dy float64) (shaft, head *plotter.Line, err error) {
	tipX, tipY := x0+dx, y0+dy
	if shaft, err = plotter.NewLine(plotter.XYs{{X: x0, Y: y0}, {X: tipX, Y: tipY}}); err != nil {
		return nil, nil, err
	}

	// unit vector pointing back along the shaft, rotated either side of it
	length := math.Hypot(dx, dy)
	bx, by := -dx/length, -dy/length
	h := headFraction * length
	sin, cos := math.Sincos(headAngle)
	left := plotter.XY{X: tipX + h*(bx*cos-by*sin), Y: tipY + h*(bx*sin+by*cos)}
	right := plotter.XY{X: tipX + h*(bx*cos+by*sin), Y: tipY + h*(-bx*sin+by*cos)}
	if head, err = plotter.NewLine(plotter.XYs{left, {X: tipX, Y: tipY}, right}); err != nil {
		return nil, nil, err
	}

	for _, l := range []*plotter.Line{shaft, head} {
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = loadColor
	}
	return shaft, head, nil
}

// save writes p to path, creating parent directories. The canvas keeps the
// domain aspect ratio within sane limits.
func save(p *gplot.Plot, m *mesh.Mesh, path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("plot: creating output directory: %w", err)
	}
	width := 6 * vg.Inch
	aspect := math.Min(math.Max(m.Ly()/m.Lx(), 0.5), 1.5)
	height := vg.Length(aspect) * width
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return path, nil
}
