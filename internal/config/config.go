// Package config loads runtime settings from a YAML file and PATHWAYS_*
// environment variables. Model settings live in llm.LoadConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/pathways/internal/db"
)

// Config is the complete runtime configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	State    StateConfig    `yaml:"state"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Search   SearchConfig   `yaml:"search"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite file; URL is the Postgres connection string.
	Path string `yaml:"path"`
	URL  string `yaml:"url"`
}

type CatalogConfig struct {
	// SeedPath is a YAML catalog; empty uses the embedded default.
	SeedPath string        `yaml:"seed_path"`
	TTL      time.Duration `yaml:"ttl"`
}

type StateConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
}

type RedisConfig struct {
	// URL enables the distributed toggle lock; empty keeps locks in memory.
	URL string `yaml:"url"`
}

type NATSConfig struct {
	// URL enables event publishing over NATS; empty logs events only.
	URL string `yaml:"url"`
}

type SearchConfig struct {
	MeiliURL string `yaml:"meili_url"`
	MeiliKey string `yaml:"meili_key"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a Config with working local defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: string(db.DialectSQLite),
			Path:   defaultDBPath(),
		},
		Catalog: CatalogConfig{TTL: 5 * time.Minute},
		State: StateConfig{
			TTL:          30 * time.Second,
			WriteTimeout: 10 * time.Second,
			LockTTL:      10 * time.Second,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pathways.db"
	}
	return filepath.Join(home, ".pathways", "pathways.db")
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads path when set, then applies environment overrides and
// validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PATHWAYS_* variables. Unparseable values
// are ignored.
func (c *Config) ApplyEnv() {
	setString(&c.Database.Driver, "PATHWAYS_DB_DRIVER")
	setString(&c.Database.Path, "PATHWAYS_DB")
	setString(&c.Database.URL, "PATHWAYS_DATABASE_URL")
	setString(&c.Catalog.SeedPath, "PATHWAYS_CATALOG")
	setDuration(&c.Catalog.TTL, "PATHWAYS_CATALOG_TTL")
	setDuration(&c.State.TTL, "PATHWAYS_STATE_TTL")
	setDuration(&c.State.WriteTimeout, "PATHWAYS_WRITE_TIMEOUT")
	setDuration(&c.State.LockTTL, "PATHWAYS_LOCK_TTL")
	setString(&c.Redis.URL, "PATHWAYS_REDIS_URL")
	setString(&c.NATS.URL, "PATHWAYS_NATS_URL")
	setString(&c.Search.MeiliURL, "PATHWAYS_MEILI_URL")
	setString(&c.Search.MeiliKey, "PATHWAYS_MEILI_KEY")
	setString(&c.HTTP.Addr, "PATHWAYS_HTTP_ADDR")
	setString(&c.Log.Level, "PATHWAYS_LOG_LEVEL")
	setString(&c.Log.Format, "PATHWAYS_LOG_FORMAT")
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// setDuration accepts Go durations ("30s") or plain milliseconds.
func setDuration(dst *time.Duration, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
		return
	}
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

// Dialect returns the parsed database driver.
func (c *Config) Dialect() (db.Dialect, error) {
	return db.ParseDialect(c.Database.Driver)
}

// DSN is the path or URL handed to db.Open.
func (c *Config) DSN() string {
	if d, _ := c.Dialect(); d == db.DialectPostgres {
		return c.Database.URL
	}
	return c.Database.Path
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	dialect, err := c.Dialect()
	if err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if dialect == db.DialectPostgres && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for postgres")
	}
	if dialect == db.DialectSQLite && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for sqlite")
	}
	if c.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog.ttl must be positive")
	}
	if c.State.TTL <= 0 || c.State.WriteTimeout <= 0 || c.State.LockTTL <= 0 {
		return fmt.Errorf("state ttl, write_timeout and lock_ttl must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
