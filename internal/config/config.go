// Package config loads deprank settings.
//
// Settings are layered, later sources overriding earlier ones:
//
//  1. built-in defaults
//  2. a TOML file ($XDG_CONFIG_HOME/deprank/config.toml, or --config)
//  3. a .env file in the working directory
//  4. process environment
//  5. command-line flags, applied by the caller
//
// Call [Config.Validate] once all layers are applied.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	deperrors "github.com/matzehuels/deprank/pkg/errors"
)

const appName = "deprank"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Defaults.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultConcurrency   = 4
	DefaultCacheCapacity = 4096
	DefaultRedisURL      = "redis://localhost:6379/0"
	DefaultAddr          = ":8080"
)

// Config holds all deprank settings.
type Config struct {
	LibrariesIOKey string    `toml:"libraries_io_api_key"`
	Strict         bool      `toml:"strict"`
	Timeout        Duration  `toml:"timeout"`
	Concurrency    int       `toml:"concurrency"`
	Cache          Cache     `toml:"cache"`
	Server         Server    `toml:"server"`
	Endpoints      Endpoints `toml:"endpoints"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Capacity int    `toml:"capacity"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Endpoints overrides the remote service base URLs. Empty values select
// the public services.
type Endpoints struct {
	PyPI        string `toml:"pypi"`
	LibrariesIO string `toml:"libraries_io"`
	GitHub      string `toml:"github"`
}

// Duration is a time.Duration written as a string ("10s", "1m30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Timeout:     Duration{DefaultTimeout},
		Concurrency: DefaultConcurrency,
		Cache: Cache{
			Backend:  CacheMemory,
			RedisURL: DefaultRedisURL,
			Capacity: DefaultCacheCapacity,
		},
		Server: Server{Addr: DefaultAddr},
	}
}

// Options controls where Load looks for settings.
type Options struct {
	// Path is an explicit config file. It must exist. When empty, the
	// default path is used if present.
	Path string
	// EnvFile is the dotenv file to read. Defaults to ".env"; a missing
	// file is not an error.
	EnvFile string
	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds a Config from defaults, the config file, the dotenv file and
// the environment. The result is not validated.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	path, required := opts.Path, opts.Path != ""
	if !required {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.readFile(path, required); err != nil {
			return nil, err
		}
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "read %s", envFile)
		}
		dotenv = nil
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the config file location following the XDG
// convention (~/.config/deprank/config.toml).
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func (c *Config) readFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := env(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := env(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("LIBRARIES_IO_API_KEY", &c.LibrariesIOKey)
	str("DEPRANK_CACHE", &c.Cache.Backend)
	str("DEPRANK_CACHE_DIR", &c.Cache.Dir)
	str("DEPRANK_REDIS_URL", &c.Cache.RedisURL)
	str("DEPRANK_ADDR", &c.Server.Addr)
	str("DEPRANK_PYPI_URL", &c.Endpoints.PyPI)
	str("DEPRANK_LIBRARIES_IO_URL", &c.Endpoints.LibrariesIO)
	str("DEPRANK_GITHUB_URL", &c.Endpoints.GitHub)
	num("DEPRANK_CONCURRENCY", &c.Concurrency)
	num("DEPRANK_CACHE_CAPACITY", &c.Cache.Capacity)

	if v, ok := env("DEPRANK_STRICT"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("DEPRANK_STRICT: %w", err))
		} else {
			c.Strict = b
		}
	}
	if v, ok := env("DEPRANK_TIMEOUT"); ok && v != "" {
		if err := c.Timeout.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			errs = append(errs, fmt.Errorf("DEPRANK_TIMEOUT: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "environment")
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheFile, CacheRedis, CacheNone:
	default:
		return deperrors.New(deperrors.ErrCodeInvalidConfig,
			"unknown cache backend %q (want memory, file, redis or none)", c.Cache.Backend)
	}
	if c.Timeout.Duration <= 0 {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "timeout must be positive, got %s", c.Timeout)
	}
	if c.Concurrency <= 0 {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Cache.Capacity <= 0 {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "cache capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "redis cache requires a redis url")
	}
	if c.Server.Addr == "" {
		return deperrors.New(deperrors.ErrCodeInvalidConfig, "server address is required")
	}
	for name, u := range map[string]string{
		"pypi":         c.Endpoints.PyPI,
		"libraries_io": c.Endpoints.LibrariesIO,
		"github":       c.Endpoints.GitHub,
	} {
		if u == "" {
			continue
		}
		if err := deperrors.ValidateURL(u); err != nil {
			return deperrors.Wrap(deperrors.ErrCodeInvalidConfig, err, "endpoints.%s", name)
		}
	}
	return nil
}

// Redacted returns a copy safe to print, with secrets masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.LibrariesIOKey != "" {
		out.LibrariesIOKey = "********"
	}
	return &out
}
