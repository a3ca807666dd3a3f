// Package config handles falkorgraph client configuration via YAML files and
// environment variables.
//
// Configuration Precedence (highest to lowest):
//  1. Command-line flags (--address, --password, etc.)
//  2. Environment variables (FALKORDB_*)
//  3. Config file (falkorgraph.yaml)
//  4. Built-in defaults
//
// Example Usage:
//
//	cfg, err := config.LoadFromFile(config.FindConfigFile())
//	if err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//	pool := falkordb.NewPool(cfg)
//
// Environment Variables (all use FALKORDB_ prefix):
//
// Server:
//   - FALKORDB_ADDRESS="localhost:6379"
//   - FALKORDB_USERNAME="default"
//   - FALKORDB_PASSWORD="secret"
//   - FALKORDB_DB=0
//   - FALKORDB_TLS=true
//   - FALKORDB_DIAL_TIMEOUT=5s
//
// Pool:
//   - FALKORDB_POOL_MAX_IDLE=8
//   - FALKORDB_POOL_MAX_ACTIVE=64
//   - FALKORDB_POOL_IDLE_TIMEOUT=5m
//   - FALKORDB_POOL_WAIT=true
//
// Query:
//   - FALKORDB_QUERY_TIMEOUT=30s
//   - FALKORDB_READ_ONLY=false
//
// Schema:
//   - FALKORDB_SCHEMA_SNAPSHOT_DIR="~/.falkorgraph/schema"
//   - FALKORDB_SCHEMA_SNAPSHOT_IN_MEMORY=false
//
// Logging:
//   - FALKORDB_LOG_LEVEL="info"
//   - FALKORDB_LOG_FORMAT="text"
//
// Metrics:
//   - FALKORDB_METRICS_ENABLED=false
//   - FALKORDB_METRICS_NAMESPACE="falkorgraph"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
//
// Configuration is organized into logical sections:
//   - Server: where and how to connect
//   - Pool: connection pool sizing
//   - Query: per-query defaults
//   - Schema: dictionary snapshot persistence
//   - Logging: log level and format
//   - Metrics: prometheus collectors
type Config struct {
	Server  ServerConfig
	Pool    PoolConfig
	Query   QueryConfig
	Schema  SchemaConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

// ServerConfig holds connection settings.
type ServerConfig struct {
	// Address is host:port of the graph server.
	Address string
	// Username for ACL auth. Empty uses password-only AUTH.
	Username string
	// Password is never printed by String.
	Password string
	// Database is the logical database index selected after connecting.
	Database int
	// TLS enables TLS on the connection.
	TLS bool
	// TLSSkipVerify disables certificate verification.
	TLSSkipVerify bool
	// DialTimeout bounds connection setup.
	DialTimeout time.Duration
	// ReadTimeout and WriteTimeout bound a single command. Zero means none.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxIdle     int
	MaxActive   int
	IdleTimeout time.Duration
	// Wait makes Get block when MaxActive connections are in use.
	Wait bool
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	// Timeout is sent to the server with every query. Zero sends none.
	Timeout time.Duration
	// ReadOnly routes every query through GRAPH.RO_QUERY.
	ReadOnly bool
}

// SchemaConfig controls dictionary snapshot persistence.
type SchemaConfig struct {
	// SnapshotDir enables a badger snapshot store in this directory.
	SnapshotDir string
	// SnapshotInMemory enables an in-memory snapshot store. Ignored when
	// SnapshotDir is set.
	SnapshotInMemory bool
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (debug, info, warn, error)
	Level string
	// Format (json, text)
	Format string
}

// MetricsConfig controls prometheus collectors.
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// LoadDefaults returns the built-in configuration.
func LoadDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Address:     "localhost:6379",
			DialTimeout: 5 * time.Second,
		},
		Pool: PoolConfig{
			MaxIdle:     8,
			MaxActive:   64,
			IdleTimeout: 5 * time.Minute,
			Wait:        true,
		},
		Query: QueryConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "falkorgraph",
		},
	}
}

// LoadFromEnv returns the defaults overridden by FALKORDB_* variables.
func LoadFromEnv() *Config {
	cfg := LoadDefaults()
	applyEnvVars(cfg)
	return cfg
}

func applyEnvVars(cfg *Config) {
	cfg.Server.Address = getEnv("FALKORDB_ADDRESS", cfg.Server.Address)
	cfg.Server.Username = getEnv("FALKORDB_USERNAME", cfg.Server.Username)
	cfg.Server.Password = getEnv("FALKORDB_PASSWORD", cfg.Server.Password)
	cfg.Server.Database = getEnvInt("FALKORDB_DB", cfg.Server.Database)
	cfg.Server.TLS = getEnvBool("FALKORDB_TLS", cfg.Server.TLS)
	cfg.Server.TLSSkipVerify = getEnvBool("FALKORDB_TLS_SKIP_VERIFY", cfg.Server.TLSSkipVerify)
	cfg.Server.DialTimeout = getEnvDuration("FALKORDB_DIAL_TIMEOUT", cfg.Server.DialTimeout)
	cfg.Server.ReadTimeout = getEnvDuration("FALKORDB_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("FALKORDB_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Pool.MaxIdle = getEnvInt("FALKORDB_POOL_MAX_IDLE", cfg.Pool.MaxIdle)
	cfg.Pool.MaxActive = getEnvInt("FALKORDB_POOL_MAX_ACTIVE", cfg.Pool.MaxActive)
	cfg.Pool.IdleTimeout = getEnvDuration("FALKORDB_POOL_IDLE_TIMEOUT", cfg.Pool.IdleTimeout)
	cfg.Pool.Wait = getEnvBool("FALKORDB_POOL_WAIT", cfg.Pool.Wait)

	cfg.Query.Timeout = getEnvDuration("FALKORDB_QUERY_TIMEOUT", cfg.Query.Timeout)
	cfg.Query.ReadOnly = getEnvBool("FALKORDB_READ_ONLY", cfg.Query.ReadOnly)

	cfg.Schema.SnapshotDir = getEnv("FALKORDB_SCHEMA_SNAPSHOT_DIR", cfg.Schema.SnapshotDir)
	cfg.Schema.SnapshotInMemory = getEnvBool("FALKORDB_SCHEMA_SNAPSHOT_IN_MEMORY", cfg.Schema.SnapshotInMemory)

	cfg.Logging.Level = strings.ToLower(getEnv("FALKORDB_LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(getEnv("FALKORDB_LOG_FORMAT", cfg.Logging.Format))

	cfg.Metrics.Enabled = getEnvBool("FALKORDB_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Namespace = getEnv("FALKORDB_METRICS_NAMESPACE", cfg.Metrics.Namespace)
}

// ApplyEnvVars applies environment variable overrides to an existing config.
func ApplyEnvVars(cfg *Config) {
	applyEnvVars(cfg)
}

// YAMLConfig mirrors the configuration file layout.
type YAMLConfig struct {
	Server struct {
		Address       string `yaml:"address"`
		Host          string `yaml:"host"`
		Port          int    `yaml:"port"`
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
		Database      int    `yaml:"database"`
		TLS           bool   `yaml:"tls"`
		TLSSkipVerify bool   `yaml:"tls_skip_verify"`
		DialTimeout   string `yaml:"dial_timeout"`
		ReadTimeout   string `yaml:"read_timeout"`
		WriteTimeout  string `yaml:"write_timeout"`
	} `yaml:"server"`

	Pool struct {
		MaxIdle     int    `yaml:"max_idle"`
		MaxActive   int    `yaml:"max_active"`
		IdleTimeout string `yaml:"idle_timeout"`
		Wait        *bool  `yaml:"wait"`
	} `yaml:"pool"`

	Query struct {
		Timeout  string `yaml:"timeout"`
		ReadOnly bool   `yaml:"read_only"`
	} `yaml:"query"`

	Schema struct {
		SnapshotDir      string `yaml:"snapshot_dir"`
		SnapshotInMemory bool   `yaml:"snapshot_in_memory"`
	} `yaml:"schema"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// LoadFromFile loads configuration with proper precedence:
//  1. Built-in defaults (lowest priority)
//  2. YAML config file
//  3. Environment variables
//
// Command-line flags are applied by the caller after this. A missing file is
// not an error.
//
// Example YAML:
//
//	server:
//	  address: "localhost:6379"
//	  password: "secret"
//	query:
//	  timeout: 10s
//	schema:
//	  snapshot_dir: "/var/lib/falkorgraph"
func LoadFromFile(configPath string) (*Config, error) {
	cfg := LoadDefaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := applyYAML(cfg, data); err != nil {
				return nil, err
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnvVars(cfg)
	return cfg, nil
}

func applyYAML(cfg *Config, data []byte) error {
	var y YAMLConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// === Server ===
	if y.Server.Host != "" {
		port := 6379
		if y.Server.Port > 0 {
			port = y.Server.Port
		}
		cfg.Server.Address = fmt.Sprintf("%s:%d", y.Server.Host, port)
	}
	if y.Server.Address != "" {
		cfg.Server.Address = y.Server.Address
	}
	if y.Server.Username != "" {
		cfg.Server.Username = y.Server.Username
	}
	if y.Server.Password != "" {
		cfg.Server.Password = y.Server.Password
	}
	if y.Server.Database > 0 {
		cfg.Server.Database = y.Server.Database
	}
	if y.Server.TLS {
		cfg.Server.TLS = true
	}
	if y.Server.TLSSkipVerify {
		cfg.Server.TLSSkipVerify = true
	}
	if err := parseDuration(y.Server.DialTimeout, "server.dial_timeout", &cfg.Server.DialTimeout); err != nil {
		return err
	}
	if err := parseDuration(y.Server.ReadTimeout, "server.read_timeout", &cfg.Server.ReadTimeout); err != nil {
		return err
	}
	if err := parseDuration(y.Server.WriteTimeout, "server.write_timeout", &cfg.Server.WriteTimeout); err != nil {
		return err
	}

	// === Pool ===
	if y.Pool.MaxIdle > 0 {
		cfg.Pool.MaxIdle = y.Pool.MaxIdle
	}
	if y.Pool.MaxActive > 0 {
		cfg.Pool.MaxActive = y.Pool.MaxActive
	}
	if err := parseDuration(y.Pool.IdleTimeout, "pool.idle_timeout", &cfg.Pool.IdleTimeout); err != nil {
		return err
	}
	if y.Pool.Wait != nil {
		cfg.Pool.Wait = *y.Pool.Wait
	}

	// === Query ===
	if err := parseDuration(y.Query.Timeout, "query.timeout", &cfg.Query.Timeout); err != nil {
		return err
	}
	if y.Query.ReadOnly {
		cfg.Query.ReadOnly = true
	}

	// === Schema ===
	if y.Schema.SnapshotDir != "" {
		cfg.Schema.SnapshotDir = expandHome(y.Schema.SnapshotDir)
	}
	if y.Schema.SnapshotInMemory {
		cfg.Schema.SnapshotInMemory = true
	}

	// === Logging ===
	if y.Logging.Level != "" {
		cfg.Logging.Level = strings.ToLower(y.Logging.Level)
	}
	if y.Logging.Format != "" {
		cfg.Logging.Format = strings.ToLower(y.Logging.Format)
	}

	// === Metrics ===
	if y.Metrics.Enabled {
		cfg.Metrics.Enabled = true
	}
	if y.Metrics.Namespace != "" {
		cfg.Metrics.Namespace = y.Metrics.Namespace
	}
	return nil
}

func parseDuration(s, field string, dst *time.Duration) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	*dst = d
	return nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Validate checks the configuration for consistency.
//
// Returns nil if configuration is valid, or an error describing the problem.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Server.Database < 0 {
		return fmt.Errorf("invalid database index: %d", c.Server.Database)
	}
	if c.Pool.MaxIdle < 0 {
		return fmt.Errorf("invalid pool max idle: %d", c.Pool.MaxIdle)
	}
	if c.Pool.MaxActive < 0 {
		return fmt.Errorf("invalid pool max active: %d", c.Pool.MaxActive)
	}
	if c.Pool.MaxActive > 0 && c.Pool.MaxIdle > c.Pool.MaxActive {
		return fmt.Errorf("pool max idle (%d) exceeds max active (%d)", c.Pool.MaxIdle, c.Pool.MaxActive)
	}
	if c.Query.Timeout < 0 {
		return fmt.Errorf("invalid query timeout: %v", c.Query.Timeout)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}

// String returns a representation safe for logging. The password is never
// included.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Address: %s, Auth: %v, TLS: %v, DB: %d, Pool: %d/%d, Timeout: %v, ReadOnly: %v}",
		c.Server.Address,
		c.Server.Password != "",
		c.Server.TLS,
		c.Server.Database,
		c.Pool.MaxIdle, c.Pool.MaxActive,
		c.Query.Timeout,
		c.Query.ReadOnly,
	)
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first config file found, or empty string if none found.
// Search order:
//  1. ~/.falkorgraph/config.yaml
//  2. Current working directory (falkorgraph.yaml, config.yaml)
//  3. ~/.config/falkorgraph/config.yaml (XDG)
func FindConfigFile() string {
	var candidates []string

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".falkorgraph", "config.yaml"))
	}
	candidates = append(candidates, "falkorgraph.yaml", "config.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "falkorgraph", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
