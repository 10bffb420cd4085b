// Package console implements the line-oriented command shell of fglopt.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/notargets/fglopt/config"
	"github.com/notargets/fglopt/logging"
	"github.com/notargets/fglopt/plot"
	"github.com/notargets/fglopt/topopt"
)

const DefaultOutputDir = "artifacts"

const helpText = `Commands:
  load <file>       Load a YAML config file
  run topo-opt      Run topology optimization (stub)
  plot mesh         Plot the mesh
  plot bc           Plot supports and loads
  export <file>     Export lattice to STL (stub)
  help              Show this help
  exit              Quit
`

// Options tune how plots are produced
type Options struct {
	// RenderMode overrides the render_mode of the loaded config when set
	RenderMode plot.RenderMode
	// OutputDir receives headless artifacts, DefaultOutputDir when empty
	OutputDir string
}

// Console reads commands from in and writes all user-facing output to out.
// The loaded config is the only state carried between commands.
type Console struct {
	in   io.Reader
	out  io.Writer
	opts Options
	cfg  *config.Config
}

func New(in io.Reader, out io.Writer, opts Options) *Console {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	return &Console{in: in, out: out, opts: opts}
}

// Config returns the currently loaded config, nil before a successful load
func (c *Console) Config() *config.Config { return c.cfg }

// Run prompts for and executes commands until exit, end of input or
// cancellation of ctx
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Welcome to the FGL Optimizer console.")
	fmt.Fprintln(c.out, "Type 'help' for commands.")

	sc := bufio.NewScanner(c.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			return sc.Err()
		}
		if quit := c.Execute(ctx, sc.Text()); quit {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether it asked to quit
func (c *Console) Execute(ctx context.Context, line string) (quit bool) {
	log := logging.FromContext(ctx)
	cmd := strings.TrimSpace(line)
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	log.Debug("console command", "cmd", cmd)

	switch {
	case cmd == "exit":
		return true

	case fields[0] == "load":
		arg := argument(cmd, "load")
		if arg == "" {
			fmt.Fprintln(c.out, "Usage: load <config_file>")
			return false
		}
		c.load(log, arg)

	case cmd == "plot mesh":
		if c.requireConfig() {
			c.plotMesh(log)
		}

	case cmd == "plot bc":
		if c.requireConfig() {
			c.plotBoundaryConditions(log)
		}

	case cmd == "run topo-opt":
		if c.requireConfig() {
			if err := topopt.Run(ctx, c.cfg, c.out); err != nil {
				log.Error("topology optimization failed", "err", err)
				fmt.Fprintf(c.out, "Error: %v\n", err)
			}
		}

	case fields[0] == "export":
		arg := argument(cmd, "export")
		if arg == "" {
			fmt.Fprintln(c.out, "Usage: export <file>")
			return false
		}
		if c.requireConfig() {
			fmt.Fprintf(c.out, "Export to %s not implemented yet (stub).\n", arg)
		}

	case cmd == "help":
		fmt.Fprint(c.out, helpText)

	default:
		fmt.Fprintln(c.out, "Unknown command.")
	}
	return false
}

// argument is everything after the command word, so paths may hold spaces
func argument(cmd, word string) string {
	return strings.TrimSpace(strings.TrimPrefix(cmd, word))
}

func (c *Console) requireConfig() bool {
	if c.cfg == nil {
		fmt.Fprintln(c.out, "Load config first.")
		return false
	}
	return true
}

// load replaces the current config; a failed load leaves no config loaded
func (c *Console) load(log *slog.Logger, path string) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Warn("config load failed", "path", path, "err", err)
		fmt.Fprintf(c.out, "Error loading config file: %v\n", err)
		c.cfg = nil
		return
	}
	c.cfg = cfg
	log.Info("config loaded", "path", path)

	fmt.Fprintf(c.out, "Config loaded from %s.\n", path)
	fmt.Fprintln(c.out, "Loaded keys:")
	for _, k := range cfg.Keys() {
		fmt.Fprintf(c.out, "    %s: %v\n", k, cfg.Get(k, nil))
	}
}

func (c *Console) renderMode() plot.RenderMode {
	if c.opts.RenderMode != "" {
		return c.opts.RenderMode
	}
	return c.cfg.RenderMode()
}

func (c *Console) plotMesh(log *slog.Logger) {
	m, err := c.cfg.BuildMesh()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	artifact, err := plot.Mesh(m, plot.Options{
		Mode:       c.renderMode(),
		OutputPath: filepath.Join(c.opts.OutputDir, "mesh.png"),
		Out:        c.out,
	})
	if err != nil {
		log.Error("mesh plot failed", "err", err)
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if artifact != "" {
		fmt.Fprintf(c.out, "Saved mesh plot to %s.\n", filepath.ToSlash(artifact))
	}
}

func (c *Console) plotBoundaryConditions(log *slog.Logger) {
	m, err := c.cfg.BuildMesh()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	r, err := c.cfg.Resolver()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	artifact, err := plot.BoundaryConditions(r, m, plot.Options{
		Mode:       c.renderMode(),
		OutputPath: filepath.Join(c.opts.OutputDir, "bc_overlay.png"),
		Out:        c.out,
	})
	if err != nil {
		log.Error("boundary condition plot failed", "err", err)
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if artifact != "" {
		fmt.Fprintf(c.out, "Saved BC plot to %s.\n", filepath.ToSlash(artifact))
	}
}
