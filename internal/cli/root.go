// Package cli implements the nestcut command-line interface.
//
// The nest command imports parts, searches for a layout and writes the
// requested exports. The compare command runs the same parts under several
// search settings, and the estimate command sizes a sheet order without
// nesting. The profiles and inventory commands manage G-code controller
// profiles and tool and sheet presets. Settings come from defaults, an optional job file, an optional
// config file, NESTCUT_ environment variables and flags, in that order.
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is passed through context.Context.
package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/piwi3910/NestCut/internal/config"
	"github.com/piwi3910/NestCut/internal/model"
	"github.com/piwi3910/NestCut/internal/project"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath    string
	verbose       bool
	metricsFile   string
	profilesPath  string
	inventoryPath string
}

func (g *globalOptions) level() log.Level {
	if g.verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// Execute runs the nestcut CLI with the given context.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:           "nestcut",
		Short:         "NestCut nests irregular parts onto CNC sheets",
		Long:          `NestCut places polygon parts with holes onto rectangular sheets using a genetic search, then writes G-code, PDF drawings, labels, spreadsheets and a 3D preview of the layout.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := newLogger(cmd.ErrOrStderr(), g.level())
			cmd.SetContext(withLogger(ctx, logger))
			g.registerProfiles(logger)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("nestcut %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ./nestcut.toml when present)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	pf.String("log-file", "", "also write logs to this file, rotated by size")
	pf.StringVar(&g.metricsFile, "metrics-file", "", "write search metrics to this file in Prometheus text format")
	pf.StringVar(&g.profilesPath, "profiles", "", "custom G-code profiles file (default in the user config directory)")
	pf.StringVar(&g.inventoryPath, "inventory", "", "tool and sheet presets file (default in the user config directory)")

	root.AddCommand(newNestCmd(g))
	root.AddCommand(newCompareCmd(g))
	root.AddCommand(newEstimateCmd(g))
	root.AddCommand(newProfilesCmd(g))
	root.AddCommand(newInventoryCmd(g))

	return root
}

// profilesFile returns the custom profiles file in use.
func (g *globalOptions) profilesFile() (string, error) {
	if g.profilesPath != "" {
		return g.profilesPath, nil
	}
	return project.DefaultProfilesPath()
}

// inventoryFile returns the tool and sheet presets file in use.
func (g *globalOptions) inventoryFile() (string, error) {
	if g.inventoryPath != "" {
		return g.inventoryPath, nil
	}
	return project.DefaultInventoryPath()
}

// registerProfiles makes the user's custom profiles available to the
// G-code generator. Problems are logged, never fatal.
func (g *globalOptions) registerProfiles(logger *log.Logger) {
	path, err := g.profilesFile()
	if err != nil {
		logger.Debug("no profiles directory", "err", err)
		return
	}
	n, err := project.RegisterCustomProfiles(path)
	if err != nil {
		logger.Warn("custom profiles skipped", "file", path, "err", err)
	}
	if n > 0 {
		logger.Debug("custom profiles registered", "file", path, "count", n)
	}
}

// loadConfig resolves the run configuration on top of base and attaches a
// file-backed logger when one is configured. The returned function closes
// the log file.
func (g *globalOptions) loadConfig(cmd *cobra.Command, base model.NestSettings) (config.Config, func() error, error) {
	cfg, err := config.Load(g.configPath, base, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	w, closeLog := logWriter(cmd.ErrOrStderr(), cfg.Log)
	if cfg.Log.File != "" {
		cmd.SetContext(withLogger(cmd.Context(), newLogger(w, g.level())))
	}
	if cfg.File != "" {
		loggerFromContext(cmd.Context()).Debug("config loaded", "file", cfg.File)
	}
	return cfg, closeLog, nil
}
