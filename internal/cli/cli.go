package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/buildinfo"
	"github.com/matzehuels/panegrid/pkg/config"
	"github.com/matzehuels/panegrid/pkg/registry"
	"github.com/matzehuels/panegrid/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "panegrid"

	// defaultLayout is the layout used when --layout is not given.
	defaultLayout = "default"
)

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

	configPath string
	layout     string
	backend    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		layout: defaultLayout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Panegrid places windows on a grid",
		Long: `Panegrid places windows on a fixed logical grid drawn over a pixel viewport.

It picks cells for new windows with a scoring heuristic that prefers the
interior of the grid, keeps distance from occupied cells and rewards
sitting next to exactly one neighbour. Window layouts are persisted in a
store (file, memory, redis or mongo) and can be managed from the command
line, a terminal UI or an HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/panegrid/config.toml)")
	flags.StringVarP(&c.layout, "layout", "l", defaultLayout, "layout name")
	flags.StringVar(&c.backend, "store", "", "store backend override: file, memory, redis, mongo")

	root.AddCommand(c.placeCommand())
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.windowCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config & Store
// =============================================================================

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
		if err := cfg.Store.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// openStore connects to the configured store, showing a spinner for
// network backends.
func (c *CLI) openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == store.BackendFile || cfg.Store.Backend == store.BackendMemory {
		return store.Open(ctx, cfg.Store)
	}

	spinner := newSpinnerWithContext(ctx, "Connecting to "+cfg.Store.Backend+"...")
	spinner.Start()
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return nil, err
		}
		spinner.StopWithError("Could not connect to " + cfg.Store.Backend)
		return nil, err
	}
	spinner.Stop()
	c.Logger.Debug("connected to store", "backend", cfg.Store.Backend)
	return s, nil
}

// session is an open layout: its registry and the store it came from.
type session struct {
	cfg    config.Config
	store  store.Store
	layout string
	reg    *registry.Registry
}

// openSession loads the current layout.
func (c *CLI) openSession(ctx context.Context) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	geom, err := cfg.Geometry()
	if err != nil {
		return nil, err
	}

	s, err := c.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg, err := store.LoadRegistry(ctx, s, c.layout, geom, c.Logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &session{cfg: cfg, store: s, layout: c.layout, reg: reg}, nil
}

func (s *session) save(ctx context.Context) error {
	return store.SaveRegistry(ctx, s.store, s.layout, s.reg)
}

func (s *session) Close() error {
	return s.store.Close()
}

// withRegistry runs fn on the current layout and saves it afterwards when
// save is set.
func (c *CLI) withRegistry(ctx context.Context, save bool, fn func(*session) error) error {
	sess, err := c.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := fn(sess); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := sess.save(ctx); err != nil {
		return err
	}
	c.Logger.Debug("saved layout", "layout", sess.layout, "windows", sess.reg.Len())
	return nil
}
