// Package cli implements the dtsm command-line interface.
//
// Commands wrap a [manager.Manager] session. The index source (a local git
// checkout or the GitHub API) and its cache come from the tool
// configuration; the manifest path comes from --manifest.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dtsm/pkg/buildinfo"
	"github.com/matzehuels/dtsm/pkg/config"
	"github.com/matzehuels/dtsm/pkg/errors"
	"github.com/matzehuels/dtsm/pkg/manager"
	"github.com/matzehuels/dtsm/pkg/manifest"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "dtsm"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath   string
	manifestPath string
	verbose      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:       newLogger(w, level),
		manifestPath: manifest.DefaultFile,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "dtsm installs TypeScript declaration files from an index repository",
		Long:         `dtsm finds .d.ts declaration files in an index repository such as DefinitelyTyped, installs them together with every file they reference, and records them in a manifest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "tool configuration file (default: $XDG_CONFIG_HOME/dtsm/config.toml)")
	flags.StringVarP(&c.manifestPath, "manifest", "m", manifest.DefaultFile, "manifest file")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// loadConfig reads the tool configuration named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "source", cfg.Source, "repo", cfg.Repo, "ref", cfg.Ref)
	return cfg, nil
}

// openManager creates a manager session over the configured index. The
// returned cleanup releases the index's cache connection.
func (c *CLI) openManager(ctx context.Context) (*manager.Manager, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	idx, cleanup, err := c.openIndex(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	m, err := manager.New(ctx, manager.Options{
		ConfigPath: c.manifestPath,
		Root:       filepath.Dir(c.manifestPath),
		Index:      idx,
		Logger:     c.Logger,
		Workers:    cfg.Workers,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return m, cleanup, nil
}

// explain prints a hint for errors the user can fix with another command,
// and returns err unchanged.
func explain(err error) error {
	if errors.Is(err, errors.ErrCodeIndexUnavailable) {
		printNextStep("Fetch the index first", appName+" fetch")
	}
	return err
}

// errFailed reports a batch command in which some entries failed.
type errFailed struct {
	failed, total int
}

func (e *errFailed) Error() string {
	return fmt.Sprintf("%d of %d entries failed", e.failed, e.total)
}
