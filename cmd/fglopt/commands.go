package main

import (
	"fmt"
	"path/filepath"

	"github.com/notargets/fglopt/config"
	"github.com/notargets/fglopt/console"
	"github.com/notargets/fglopt/logging"
	"github.com/notargets/fglopt/plot"
	"github.com/notargets/fglopt/topopt"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	logLevel   string
	logFormat  string
	renderMode string
	outputDir  string

	// mode is renderMode after validation; empty defers to the config file
	mode plot.RenderMode
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "fglopt",
		Short: "Structured-mesh topology optimization toolkit",
		Long: `fglopt builds a structured quad mesh from a YAML config, resolves its
boundary conditions and renders them. Without a subcommand it starts the
interactive console.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, flags)
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "info", "Logging level: debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format: text or json")
	pf.StringVar(&flags.renderMode, "render-mode", "", "Override render_mode: interactive or headless")
	pf.StringVar(&flags.outputDir, "output-dir", console.DefaultOutputDir, "Directory for headless plot artifacts")

	root.AddCommand(
		&cobra.Command{
			Use:   "console",
			Short: "Start the interactive console",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConsole(cmd, flags)
			},
		},
		newPlotCmd(flags),
		&cobra.Command{
			Use:   "run <config>",
			Short: "Run topology optimization (stub)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(args[0])
				if err != nil {
					return err
				}
				return topopt.Run(cmd.Context(), cfg, cmd.OutOrStdout())
			},
		},
	)
	return root
}

// setup validates the persistent flags and puts the logger in the context
func (f *rootFlags) setup(cmd *cobra.Command) error {
	logger, err := logging.New(f.logLevel, f.logFormat, cmd.ErrOrStderr())
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if f.renderMode != "" {
		if f.mode, err = plot.ParseRenderMode(f.renderMode); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	logger.Debug("flags parsed", "command", cmd.Name(), "render_mode", f.mode, "output_dir", f.outputDir)
	return nil
}

func runConsole(cmd *cobra.Command, flags *rootFlags) error {
	c := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), console.Options{
		RenderMode: flags.mode,
		OutputDir:  flags.outputDir,
	})
	return c.Run(cmd.Context())
}

func newPlotCmd(flags *rootFlags) *cobra.Command {
	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the mesh or boundary conditions of a config",
	}

	plotCmd.AddCommand(
		&cobra.Command{
			Use:   "mesh <config>",
			Short: "Plot the mesh",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(args[0])
				if err != nil {
					return err
				}
				m, err := cfg.BuildMesh()
				if err != nil {
					return err
				}
				artifact, err := plot.Mesh(m, flags.plotOptions(cmd, cfg, "mesh.png"))
				if err != nil {
					return err
				}
				if artifact != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved mesh plot to %s.\n", filepath.ToSlash(artifact))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "bc <config>",
			Short: "Plot supports and loads",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(args[0])
				if err != nil {
					return err
				}
				m, err := cfg.BuildMesh()
				if err != nil {
					return err
				}
				r, err := cfg.Resolver()
				if err != nil {
					return err
				}
				artifact, err := plot.BoundaryConditions(r, m, flags.plotOptions(cmd, cfg, "bc_overlay.png"))
				if err != nil {
					return err
				}
				if artifact != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved BC plot to %s.\n", filepath.ToSlash(artifact))
				}
				return nil
			},
		},
	)
	return plotCmd
}

func (f *rootFlags) plotOptions(cmd *cobra.Command, cfg *config.Config, name string) plot.Options {
	mode := f.mode
	if mode == "" {
		mode = cfg.RenderMode()
	}
	return plot.Options{
		Mode:       mode,
		OutputPath: filepath.Join(f.outputDir, name),
		Out:        cmd.OutOrStdout(),
	}
}
