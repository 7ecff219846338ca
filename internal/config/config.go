// Package config loads placetree settings from defaults, an optional
// placetree.toml file, a .env file and PLACETREE_* environment variables.
//
// Later sources win: environment variables override the config file, which
// overrides the built-in defaults. Keys are dotted (store.path) in the file
// and upper-cased with underscores in the environment (PLACETREE_STORE_PATH).
//
// The postgres and mongo store backends read their connection URL from
// store.url (PLACETREE_STORE_URL) instead of store.path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/store"
)

// AppName is used for the config file name, the environment prefix and the
// XDG directories.
const AppName = "placetree"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the resolved configuration.
type Config struct {
	Store  StoreConfig
	Cache  CacheConfig
	Server ServerConfig
	Log    LogConfig

	// File is the config file that was read, empty when none was found.
	File string
}

// StoreConfig selects where the location snapshot lives. Path is used by
// the file and diskv backends, URL by postgres and mongo.
type StoreConfig struct {
	Backend store.Backend
	Path    string
	URL     string
}

// Location returns the path or connection URL handed to [store.Open].
func (s StoreConfig) Location() string {
	if s.Backend.IsNetwork() {
		return s.URL
	}
	return s.Path
}

// CacheConfig selects where per-client view state lives.
type CacheConfig struct {
	Backend   string
	Dir       string
	RedisURL  string
	RedisAddr string
	TTL       time.Duration
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
	RateLimit   RateLimitConfig
}

// RateLimitConfig is a per-client token bucket. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string
}

// Options controls where Load looks.
type Options struct {
	// ConfigFile is an explicit config path. When set, a missing file is an
	// error.
	ConfigFile string
	// EnvFiles are loaded with godotenv before reading the environment.
	// Defaults to ".env"; missing files are ignored.
	EnvFiles []string
	// SearchPaths replaces the default config search directories.
	SearchPaths []string
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("toml")
		paths := opts.SearchPaths
		if paths == nil {
			paths = SearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend: store.Backend(v.GetString("store.backend")),
			Path:    expandHome(v.GetString("store.path")),
			URL:     v.GetString("store.url"),
		},
		Cache: CacheConfig{
			Backend:   v.GetString("cache.backend"),
			Dir:       expandHome(v.GetString("cache.dir")),
			RedisURL:  v.GetString("cache.redis_url"),
			RedisAddr: v.GetString("cache.redis_addr"),
			TTL:       v.GetDuration("cache.ttl"),
		},
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: splitList(v.GetStringSlice("server.cors_origins")),
			RateLimit: RateLimitConfig{
				RPS:   v.GetFloat64("server.rate_limit.rps"),
				Burst: v.GetInt("server.rate_limit.burst"),
			},
		},
		Log:  LogConfig{Level: v.GetString("log.level")},
		File: v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	if !slices.Contains(store.Backends(), c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend.IsNetwork() && c.Store.URL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "%s store needs store.url", c.Store.Backend)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" && c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis cache needs cache.redis_url or cache.redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "server.rate_limit.burst must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", string(store.BackendFile))
	v.SetDefault("store.path", filepath.Join(DataDir(), "locations.json"))
	v.SetDefault("store.url", "")
	v.SetDefault("cache.backend", CacheFile)
	v.SetDefault("cache.dir", CacheDir())
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.rps", 20.0)
	v.SetDefault("server.rate_limit.burst", 40)
	v.SetDefault("log.level", "info")
}

// =============================================================================
// Paths
// =============================================================================

// SearchPaths returns the default directories searched for placetree.toml:
// the working directory, then the XDG config directory.
func SearchPaths() []string {
	return []string{".", ConfigDir()}
}

// ConfigDir returns $XDG_CONFIG_HOME/placetree (~/.config/placetree).
func ConfigDir() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// DataDir returns $XDG_DATA_HOME/placetree (~/.local/share/placetree).
func DataDir() string { return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")) }

// CacheDir returns $XDG_CACHE_HOME/placetree (~/.cache/placetree).
func CacheDir() string { return xdgDir("XDG_CACHE_HOME", ".cache") }

func xdgDir(env, fallback string) string {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(home, fallback, AppName)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// splitList accepts both TOML arrays and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
