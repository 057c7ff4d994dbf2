package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output drivers.
const (
	DriverFS    = "fs"
	DriverRedis = "redis"
)

// Environment variables consulted when the config leaves the server section empty.
const (
	EnvAccessKey = "PESTO_ACCESS_KEY"
	EnvServerURL = "PESTO_SERVER_URL"
)

// DefaultServerURL is the public Pesto server.
const DefaultServerURL = "https://db.pesto.garden/"

// Config holds the pesto configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Build   BuildConfig   `yaml:"build"`
	Output  OutputConfig  `yaml:"output"`
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the remote Pesto server settings used by download.
type ServerConfig struct {
	URL        string `yaml:"url"`
	AccessKey  string `yaml:"access_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// BuildConfig holds the rendering defaults for build and /v1/render.
type BuildConfig struct {
	Template          string   `yaml:"template"` // path; empty selects the built-in markdown template
	FileName          string   `yaml:"file_name"`
	FrontMatter       *bool    `yaml:"front_matter"`
	FrontMatterFields []string `yaml:"front_matter_fields"`
	Aliases           []string `yaml:"aliases"`
	Defaults          []string `yaml:"defaults"`
	Overrides         []string `yaml:"overrides"`
	Annotations       bool     `yaml:"annotations"`
	Force             bool     `yaml:"force"`
	ContinueOnError   bool     `yaml:"continue_on_error"`
}

// FrontMatterEnabled reports whether front matter is on (default true).
func (b BuildConfig) FrontMatterEnabled() bool {
	return b.FrontMatter == nil || *b.FrontMatter
}

// OutputConfig selects where rendered documents go.
type OutputConfig struct {
	Driver string      `yaml:"driver"` // fs, redis (default: fs)
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis output driver.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// MetricsConfig holds metrics export settings for batch commands.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path; empty disables
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A missing file yields the defaults.
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env), true)
}

// LoadFile reads configuration from path. With optional set, a missing file
// is not an error and defaults apply.
func LoadFile(path string, optional bool) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		data = nil
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

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
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
	if c.Server.URL == "" {
		c.Server.URL = os.Getenv(EnvServerURL)
	}
	if c.Server.URL == "" {
		c.Server.URL = DefaultServerURL
	}
	if c.Server.AccessKey == "" {
		c.Server.AccessKey = os.Getenv(EnvAccessKey)
	}
	if c.Server.TimeoutSec <= 0 {
		c.Server.TimeoutSec = 30
	}
	if c.Build.FileName == "" {
		c.Build.FileName = "{created_at}.md"
	}
	if c.Output.Driver == "" {
		c.Output.Driver = DriverFS
	}
	if c.Output.Redis.KeyPrefix == "" {
		c.Output.Redis.KeyPrefix = "pesto:output:"
	}
	if c.Output.Redis.ReadinessTimeout <= 0 {
		c.Output.Redis.ReadinessTimeout = 10
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 32 << 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Output.Driver {
	case DriverFS:
	case DriverRedis:
		if len(c.Output.Redis.Addrs) == 0 {
			return fmt.Errorf("output.redis.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("output.driver must be %q or %q, got %q", DriverFS, DriverRedis, c.Output.Driver)
	}
	if c.Output.Redis.TTLSec < 0 {
		return fmt.Errorf("output.redis.ttl_sec must not be negative, got %d", c.Output.Redis.TTLSec)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
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
