package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zarrlens/zarrlens/pkg/buildinfo"
	"github.com/zarrlens/zarrlens/pkg/cache"
	"github.com/zarrlens/zarrlens/pkg/config"
	"github.com/zarrlens/zarrlens/pkg/resolver"
	"github.com/zarrlens/zarrlens/pkg/store"
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

	configPath string
	noCache    bool
	refresh    bool
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
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
		Short: "zarrlens inspects Zarr and OME-Zarr datasets and opens them in Neuroglancer",
		Long: `zarrlens resolves Zarr v2/v3 and OME-Zarr datasets on the local disk, HTTP,
S3 or GCS, summarizes their metadata, renders thumbnails, classifies them as
image or segmentation data and synthesizes Neuroglancer viewer states.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/zarrlens/config.toml)")
	pf.BoolVar(&c.noCache, "no-cache", false, "bypass the metadata and thumbnail cache")
	pf.BoolVar(&c.refresh, "refresh", false, "refetch cached metadata and thumbnails")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.classifyCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// =============================================================================
// Resolver Factory
// =============================================================================

// newResolver builds a resolver from the loaded config. adjust, when set,
// edits the options before validation. The returned func closes the cache.
func (c *CLI) newResolver(ctx context.Context, adjust func(*resolver.Options)) (*resolver.Resolver, func(), error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts := c.cfg.ResolverOptions(ch, c.refresh, c.Logger)
	if adjust != nil {
		adjust(&opts)
	}
	r, err := resolver.New(opts)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return r, func() { ch.Close() }, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	ch, err := c.cfg.OpenCache(ctx, c.noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// openStore opens a folder for listing.
func (c *CLI) openStore(ctx context.Context, url string) (store.Store, error) {
	return store.Open(ctx, url, c.cfg.StoreOptions(cache.NewNullCache(), c.Logger))
}

// resolve runs a one-shot resolution behind a spinner.
func (c *CLI) resolve(cmd *cobra.Command, r *resolver.Resolver, url string) (*resolver.Resolution, error) {
	ctx := cmd.Context()
	spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Resolving "+url)
	spinner.Start()
	prog := newProgress(c.Logger)

	res, err := r.Resolve(ctx, url)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Resolved " + res.State.String())
	return res, nil
}

// dataURLOr returns the --data-url override, or url.
func dataURLOr(override, url string) string {
	if override != "" {
		return override
	}
	return url
}
