// Package cli implements the deprank command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/deprank/internal/config"
	"github.com/matzehuels/deprank/pkg/buildinfo"
	"github.com/matzehuels/deprank/pkg/cache"
	deperrors "github.com/matzehuels/deprank/pkg/errors"
	"github.com/matzehuels/deprank/pkg/integrations/github"
	"github.com/matzehuels/deprank/pkg/integrations/librariesio"
	"github.com/matzehuels/deprank/pkg/integrations/pypi"
	"github.com/matzehuels/deprank/pkg/rank"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "deprank"

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
	// Config is loaded before any subcommand runs.
	Config *config.Config

	stdout io.Writer
	stdin  io.Reader
	flags  globalFlags
}

// globalFlags are the persistent flags overriding config values.
type globalFlags struct {
	configPath     string
	librariesIOKey string
	timeout        time.Duration
	concurrency    int
	cacheBackend   string
	cacheDir       string
	redisURL       string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		stdout: os.Stdout,
		stdin:  os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		installDebugHooks(c.Logger)
	}
}

// SetIO replaces the streams commands read input from and write results to.
func (c *CLI) SetIO(stdout io.Writer, stdin io.Reader) {
	c.stdout = stdout
	c.stdin = stdin
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "deprank ranks Python packages by their GitHub dependents",
		Long: `deprank resolves Python package names and GitHub repositories to their
source repository and ranks them by the number of public repositories that
depend on them, as reported by GitHub's dependents page.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())

	f := root.PersistentFlags()
	f.StringVar(&c.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/deprank/config.toml)")
	f.StringVar(&c.flags.librariesIOKey, "libraries-io-key", "", "Libraries.io API key enabling fallback resolution")
	f.DurationVar(&c.flags.timeout, "timeout", config.DefaultTimeout, "timeout for each remote request")
	f.IntVar(&c.flags.concurrency, "concurrency", config.DefaultConcurrency, "number of concurrent lookups")
	f.StringVar(&c.flags.cacheBackend, "cache", config.CacheMemory, "cache backend: memory, file, redis or none")
	f.StringVar(&c.flags.cacheDir, "cache-dir", "", "directory of the file cache (default $XDG_CACHE_HOME/deprank)")
	f.StringVar(&c.flags.redisURL, "redis-url", config.DefaultRedisURL, "redis connection URL for the redis cache")

	// Register all subcommands
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig layers flags over the file and environment settings.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{Path: c.flags.configPath})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("libraries-io-key") {
		cfg.LibrariesIOKey = c.flags.librariesIOKey
	}
	if flags.Changed("timeout") {
		cfg.Timeout.Duration = c.flags.timeout
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = c.flags.concurrency
	}
	if flags.Changed("cache") {
		cfg.Cache.Backend = c.flags.cacheBackend
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = c.flags.cacheDir
	}
	if flags.Changed("redis-url") {
		cfg.Cache.RedisURL = c.flags.redisURL
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Pipeline Factory
// =============================================================================

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.Config.Cache
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheFile:
		dir, err := c.fileCacheDir()
		if err != nil {
			return nil, err
		}
		return cache.NewFileCache(dir)
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "connect to redis")
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(cache.WithCapacity(cfg.Capacity))
	}
}

// newAggregator wires the remote clients and the cache into a pipeline.
func (c *CLI) newAggregator(store cache.Cache) *rank.Aggregator {
	cfg := c.Config
	timeout := cfg.Timeout.Duration
	memo := cache.NewMemo(store)

	registry := pypi.NewClient(cfg.Endpoints.PyPI, timeout)
	fallback := librariesio.NewClient(cfg.Endpoints.LibrariesIO, cfg.LibrariesIOKey, timeout)
	pages := github.NewClient(cfg.Endpoints.GitHub, timeout)
	if !fallback.Enabled() {
		c.Logger.Debug("libraries.io fallback disabled (no api key)")
	}

	agg := rank.NewAggregator(memo,
		rank.NewResolver(memo, registry, fallback, c.Logger),
		rank.NewFetcher(memo, pages, c.Logger),
		c.Logger)
	agg.Workers = cfg.Concurrency
	return agg
}

// =============================================================================
// Paths
// =============================================================================

// fileCacheDir returns the configured cache directory or the XDG default.
func (c *CLI) fileCacheDir() (string, error) {
	if c.Config != nil && c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/deprank/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
