// Package config loads rulemaker's TOML configuration file.
//
// The file is optional. Every key has a default, and a file only needs the
// keys it changes:
//
//	[layout]
//	x_spacing = 400
//
//	[route]
//	edge_color = "#607d8b"
//
//	[render]
//	formats = ["svg", "dot"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/rulemaker/pkg/cache"
	"github.com/matzehuels/rulemaker/pkg/diagram"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/layout"
	"github.com/matzehuels/rulemaker/pkg/pipeline"
	"github.com/matzehuels/rulemaker/pkg/route"
)

// FileName is the base name of the configuration file.
const FileName = "config.toml"

// Config is the complete configuration.
type Config struct {
	Layout layout.Options `toml:"layout"`
	Route  route.Options  `toml:"route"`
	Render RenderConfig   `toml:"render"`
	Cache  CacheConfig    `toml:"cache"`
	Server ServerConfig   `toml:"server"`
}

// RenderConfig holds output defaults.
type RenderConfig struct {
	Formats []string `toml:"formats"`
	Output  string   `toml:"output_dir"` // Empty means next to the input file
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend   string        `toml:"backend"` // file, redis or none
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
	Prefix    string        `toml:"prefix"`
	TTL       time.Duration `toml:"ttl"`
}

// ServerConfig configures `rulemaker serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultOptions(),
		Route:  route.DefaultOptions(),
		Render: RenderConfig{Formats: []string{pipeline.FormatSVG}},
		Cache:  CacheConfig{Backend: cache.BackendFile, TTL: cache.LayoutTTL},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/rulemaker/config.toml, or the
// platform equivalent.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "rulemaker", FileName), nil
}

// Load reads the file at path over the defaults and validates the result.
// An empty path means [DefaultPath]; a missing file at the default path
// yields the defaults, while a missing explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return Config{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file not found: %s", path)
			}
			return Default(), nil
		}
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "open %s", path)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Decode reads TOML from r over the defaults. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errs.New(errs.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	l := c.Layout
	if l.XSpacing <= 0 || l.NodeHeight <= 0 || l.SpacingAbove <= 0 || l.SpacingBelow <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "layout spacings and node_height must be positive")
	}
	if l.Widths.Narrow <= 0 || l.Widths.Medium < l.Widths.Narrow || l.Widths.Wide < l.Widths.Medium {
		return errs.New(errs.ErrCodeInvalidConfig, "layout widths must be positive and non-decreasing")
	}
	if l.Widths.NarrowMaxLen <= 0 || l.Widths.MediumMaxLen < l.Widths.NarrowMaxLen {
		return errs.New(errs.ErrCodeInvalidConfig, "layout width thresholds must be positive and non-decreasing")
	}
	if l.Margin < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "layout margin cannot be negative")
	}
	if c.Route.Color == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "route edge_color cannot be empty")
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "render formats")
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache redis_addr is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache ttl cannot be negative")
	}
	return nil
}

// Diagram returns the layout and routing constants.
func (c Config) Diagram() diagram.Config {
	return diagram.Config{Layout: c.Layout, Route: c.Route}
}

// CacheOptions returns the options for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
		Prefix:    c.Cache.Prefix,
	}
}
