// Package config loads runtime settings for the agent.
//
// Precedence is conventional: environment variables win, an optional .env
// file fills gaps, and the TOML file at ~/.config/investor-agent/config.toml
// provides durable per-machine settings (cache backend, bridge address).
// Provider credentials are read from the environment by the provider
// packages themselves and never live in the TOML file.
package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
)

// appName is used for config and cache directory names.
const appName = "investor-agent"

// Cache backend names accepted in the TOML file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full TOML file shape. Zero values select the defaults.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Serve  ServeConfig  `toml:"serve"`
	Bridge BridgeConfig `toml:"bridge"`
}

// CacheConfig selects and tunes the HTTP response cache.
type CacheConfig struct {
	// Backend is one of file, redis, none. Defaults to file.
	Backend string `toml:"backend"`
	// Dir overrides the file cache location. Defaults to ~/.cache/investor-agent.
	Dir string `toml:"dir"`
	// TTLMinutes bounds cached response age. Defaults to 15.
	TTLMinutes int `toml:"ttl_minutes"`
	// RedisAddr is the host:port of the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// ServeConfig configures the MCP server's HTTP transport.
type ServeConfig struct {
	// Addr is the HTTP listen address. Defaults to 127.0.0.1:8080.
	Addr string `toml:"addr"`
}

// BridgeConfig configures the REST bridge.
type BridgeConfig struct {
	// Addr is the HTTP listen address. Defaults to 127.0.0.1:8000.
	Addr string `toml:"addr"`
}

// DefaultPath returns the conventional config file location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadEnv loads a .env file from the working directory into the process
// environment when one exists. Variables already set are never overridden.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load reads the TOML file at path and applies defaults. A missing file is
// not an error: every setting has a usable default. A present but malformed
// file is a configuration error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err, "failed to parse config file %s", path)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 15
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "127.0.0.1:6379"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = "127.0.0.1:8080"
	}
	if c.Bridge.Addr == "" {
		c.Bridge.Addr = "127.0.0.1:8000"
	}
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			"unknown cache backend %q: must be file, redis, or none", c.Cache.Backend)
	}
	if c.Cache.TTLMinutes < 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"cache ttl_minutes cannot be negative, got %d", c.Cache.TTLMinutes)
	}
	return nil
}

// TTL returns the configured cache TTL.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// OpenCache builds the configured cache backend. The file backend degrades
// to a null cache when the directory cannot be created; the redis backend
// fails hard since asking for it and not getting it would silently change
// behavior.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		backend, err := cache.NewRedisCache(ctx, c.Cache.RedisAddr, appName)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err,
				"failed to connect to redis at %s", c.Cache.RedisAddr)
		}
		return backend, nil
	default:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := cache.DefaultDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		backend, err := cache.NewFileCache(dir)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return backend, nil
	}
}
