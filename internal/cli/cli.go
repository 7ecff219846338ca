// Package cli implements the placetree command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/internal/config"
	"github.com/matzehuels/placetree/pkg/buildinfo"
	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/relocate"
	"github.com/matzehuels/placetree/pkg/store"
	"github.com/matzehuels/placetree/pkg/viewstate"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

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

	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer

	cfg   *config.Config
	flags globalFlags
}

// globalFlags are the persistent flags shared by every command. Non-empty
// values override the configuration.
type globalFlags struct {
	configFile string
	storePath  string
	backend    string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Placetree organizes the locations of a property as a tree",
		Long:         `Placetree keeps a property's buildings, floors, areas and grounds in one ordered hierarchy and validates every move against the location kind rules.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configFile, "config", "", "config file (default: ./placetree.toml, then $XDG_CONFIG_HOME/placetree)")
	pf.StringVarP(&c.flags.storePath, "store", "s", "", "location store path, or connection URL for postgres and mongo")
	pf.StringVar(&c.flags.backend, "backend", "", "store backend: file, diskv, memory, postgres or mongo (overrides store.backend)")
	pf.BoolVar(&c.flags.noCache, "no-cache", false, "do not read or save the tree view state")

	// Register all subcommands
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.expandCommand())
	root.AddCommand(c.collapseCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.moveCommand())
	root.AddCommand(c.dropCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the configuration once and applies flag overrides.
func (c *CLI) loadConfig() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load(config.Options{ConfigFile: c.flags.configFile})
	if err != nil {
		return err
	}
	if c.flags.backend != "" {
		cfg.Store.Backend = store.Backend(c.flags.backend)
	}
	if c.flags.storePath != "" {
		if cfg.Store.Backend.IsNetwork() {
			cfg.Store.URL = c.flags.storePath
		} else {
			cfg.Store.Path = c.flags.storePath
		}
	}
	if c.flags.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// --verbose wins over log.level.
	if c.Logger.GetLevel() > log.DebugLevel {
		if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
			c.Logger.SetLevel(lvl)
		} else {
			c.Logger.Warn("ignoring log level", "level", cfg.Log.Level)
		}
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// openService opens the configured store and wraps it in a relocation
// service. The caller closes the returned store.
func (c *CLI) openService(ctx context.Context) (*relocate.Service, store.Store, error) {
	st, err := store.Open(ctx, c.cfg.Store.Backend, c.cfg.Store.Location())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	c.Logger.Debug("opened store", "backend", c.cfg.Store.Backend, "location", c.storeLabel())
	return relocate.NewService(st, c.Logger), st, nil
}

// openCache opens the configured view-state cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	switch c.cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:  c.cfg.Cache.RedisURL,
			Addr: c.cfg.Cache.RedisAddr,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(c.cfg.Cache.Dir)
	if err != nil {
		// View state is a convenience; never fail a command over it.
		c.Logger.Warn("view state disabled", "dir", c.cfg.Cache.Dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// openViews returns the view-state store and the scope for the configured
// snapshot. The caller closes the returned cache.
func (c *CLI) openViews(ctx context.Context) (*viewstate.Store, string, cache.Cache, error) {
	cc, err := c.openCache(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	return viewstate.NewStore(cc, nil, c.cfg.Cache.TTL), viewScope(c.cfg.Store), cc, nil
}

// viewScope names the view state of one store. Paths are made absolute so
// the same store shares state across working directories; connection URLs
// lose their password.
func viewScope(sc config.StoreConfig) string {
	if sc.Backend.IsNetwork() {
		return string(sc.Backend) + ":" + redactURL(sc.URL)
	}
	if abs, err := filepath.Abs(sc.Path); err == nil {
		return abs
	}
	return sc.Path
}

// storeLabel describes the configured store for messages.
func (c *CLI) storeLabel() string {
	if c.cfg.Store.Backend.IsNetwork() {
		return redactURL(c.cfg.Store.URL)
	}
	return c.cfg.Store.Path
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}

// cacheDir returns the configured view-state directory, falling back to the
// XDG default before the configuration is loaded.
func (c *CLI) cacheDir() string {
	if c.cfg != nil && c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	return config.CacheDir()
}
