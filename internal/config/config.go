package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tiles service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Site     SiteConfig     `yaml:"site"`
	ESI      ESIConfig      `yaml:"esi"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tiles    []TileConfig   `yaml:"tiles"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, sqlite, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	CacheTTLSec      int      `yaml:"cache_ttl_sec"` // client-side cache for redis/valkey, 0 = off
	Path             string   `yaml:"path"`          // sqlite file or ":memory:"
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds tile data storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	// Anchors maps content path prefixes to the context whose annotations
	// hold the tile data of everything below the prefix.
	Anchors map[string]string `yaml:"anchors"`
}

// SiteConfig describes the public site the tiles are served from.
type SiteConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ESIConfig holds edge side include settings.
type ESIConfig struct {
	Enabled bool `yaml:"enabled"` // honor X-ESI-Enabled on ESI-capable tiles
}

// TileConfig declares one tile type.
type TileConfig struct {
	Name              string        `yaml:"name"`
	Title             string        `yaml:"title"`
	Description       string        `yaml:"description"`
	Icon              string        `yaml:"icon"`
	AddPermission     string        `yaml:"add_permission"`
	EditPermission    string        `yaml:"edit_permission"`
	DeletePermission  string        `yaml:"delete_permission"`
	ViewPermission    string        `yaml:"view_permission"`
	Persistent        bool          `yaml:"persistent"`
	ESI               bool          `yaml:"esi"`
	Head              bool          `yaml:"head"`
	Template          string        `yaml:"template"`
	IgnoreQueryString []string      `yaml:"ignore_querystring"`
	Fields            []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one schema field of a tile type.
type FieldConfig struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	Title     string `yaml:"title"`
	Required  bool   `yaml:"required"`
	Primary   bool   `yaml:"primary"`
	Default   any    `yaml:"default"`
	ValueType string `yaml:"value_type"` // element kind of list/tuple fields
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "tiles:"
	}
	c.Site.BaseURL = strings.TrimRight(c.Site.BaseURL, "/")
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver \"sqlite\"")
		}
	case "memory":
	default:
		return fmt.Errorf(
			"database.driver must be one of valkey, redis, sqlite, memory, got %q", c.Database.Driver)
	}
	seen := make(map[string]bool, len(c.Tiles))
	for i, t := range c.Tiles {
		if t.Name == "" {
			return fmt.Errorf("tiles[%d].name is required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("tiles[%d]: duplicate tile type %q", i, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
