// Package cli implements the pyclean command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nikromen/pyclean/internal/terminal"
	"github.com/nikromen/pyclean/pkg/buildinfo"
	"github.com/nikromen/pyclean/pkg/cleaner"
	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/config"
	"github.com/nikromen/pyclean/pkg/manager"
	"github.com/nikromen/pyclean/pkg/manager/dpkg"
	"github.com/nikromen/pyclean/pkg/manager/pip"
	"github.com/nikromen/pyclean/pkg/manager/pipx"
	"github.com/nikromen/pyclean/pkg/manager/rpm"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for the binary and display.
const appName = "pyclean"

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

	// sources builds every known source, enabled or not, in enumeration order.
	sources func(cfg *config.Config) []manager.Source

	// interactive reports whether terminal forms can be shown.
	interactive func() bool

	flags    globalFlags
	cfg      *config.Config
	all      []manager.Source
	cleaner  *cleaner.Cleaner
	reporter *reporter
}

type globalFlags struct {
	systemClean bool
	debug       bool
	configPath  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger:      newLogger(w, level),
		interactive: terminal.IsInteractive,
	}
	c.sources = c.defaultSources
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Find and remove Python packages installed by more than one package manager",
		Long: `pyclean finds Python packages that are installed more than once by different
package managers (rpm, dpkg, pip, pipx) and helps remove the extra copies.

By default only the user site is scanned for pip packages; --system-clean
includes system-wide installations as well.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.flags.systemClean, "system-clean", "s", false, "look for packages in the whole system")
	pf.BoolVar(&c.flags.debug, "debug", false, "enable debug logging")
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pyclean/config.toml)")

	root.AddCommand(c.showCommand())
	root.AddCommand(c.cleanCommand())
	root.AddCommand(c.managersCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration, applies flag overrides and builds the cleaner
// over the enabled sources that exist on this host.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if c.flags.systemClean {
		cfg.SystemClean = true
	}
	if c.flags.debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		c.SetLogLevel(LogDebug)
	}
	c.cfg = cfg

	c.all = c.sources(cfg)
	var enabled []manager.Source
	for _, src := range c.all {
		if cfg.Enabled(src.Kind()) {
			enabled = append(enabled, src)
		}
	}
	c.cleaner = cleaner.New(enabled, c.Logger)

	c.reporter = newReporter(c.Logger, !cfg.Debug && terminal.IsTerminal(os.Stderr))
	c.reporter.register()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	c.Logger.Debug("configuration loaded", "system_clean", cfg.SystemClean, "managers", cfg.Managers)
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.flags.configPath != "" {
		return config.Load(c.flags.configPath)
	}
	return config.LoadDefault()
}

// =============================================================================
// Sources
// =============================================================================

// defaultSources wires every adapter to a local command runner. Native
// sources present on the host also act as ownership probes for pip.
func (c *CLI) defaultSources(cfg *config.Config) []manager.Source {
	runner := command.NewExec(c.Logger, cfg.Sudo)

	rpmSrc := rpm.New(runner, c.Logger, rpm.WithWorkers(cfg.Workers))
	dpkgSrc := dpkg.New(runner, c.Logger, dpkg.WithWorkers(cfg.Workers))

	var owners manager.Owners
	if rpmSrc.Exists() {
		owners = append(owners, rpmSrc)
	}
	if dpkgSrc.Exists() {
		owners = append(owners, dpkgSrc)
	}

	return []manager.Source{
		rpmSrc,
		dpkgSrc,
		pip.New(runner, c.Logger,
			pip.WithPython(cfg.Python),
			pip.WithSystem(cfg.SystemClean),
			pip.WithOwner(owners),
		),
		pipx.New(runner, c.Logger),
	}
}

// prompter picks terminal forms when attached to a terminal and plain line
// prompts otherwise.
func (c *CLI) prompter(in io.Reader, out io.Writer) prompter {
	if c.interactive != nil && c.interactive() {
		return NewHuhPrompter(out)
	}
	return NewLinePrompter(in, out)
}

// stopProgress clears any spinner left by an interrupted scan.
func (c *CLI) stopProgress() {
	if c.reporter != nil {
		c.reporter.stop()
	}
}
