package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docset/internal/domain/record"
)

// Search backends.
const (
	BackendRedis       = "redis"
	BackendBleve       = "bleve"
	BackendMeilisearch = "meilisearch"
)

// Record drivers.
const (
	RecordsRedis  = "redis"
	RecordsSQLite = "sqlite"
)

// Config holds the docset configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Search  SearchConfig  `yaml:"search"`
	Records RecordsConfig `yaml:"records"`
	Kinds   []KindConfig  `yaml:"kinds"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
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
	MaxPageSize     int `yaml:"max_page_size"`
}

// SearchConfig selects and configures the search backend.
type SearchConfig struct {
	Backend          string   `yaml:"backend"` // redis, bleve, meilisearch (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	BlevePath        string   `yaml:"bleve_path"` // empty: in-memory indexes
	MeiliHost        string   `yaml:"meili_host"`
	MeiliAPIKey      string   `yaml:"meili_api_key"`
	MeiliPrimaryKey  string   `yaml:"meili_primary_key"`
	TimeoutMs        int      `yaml:"timeout_ms"`
	DefaultPageSize  int      `yaml:"default_page_size"`
}

// Timeout returns the per-request backend timeout.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RecordsConfig selects the record layer that resolves hits.
type RecordsConfig struct {
	Driver     string `yaml:"driver"` // redis, sqlite (default: redis)
	SQLitePath string `yaml:"sqlite_path"`
	CacheSize  int    `yaml:"cache_size"` // 0 disables the record cache
}

// KindConfig declares one record kind.
type KindConfig struct {
	Name         string            `yaml:"name"`
	Index        string            `yaml:"index"`
	Prefix       string            `yaml:"prefix"`
	Table        string            `yaml:"table"`
	DefaultField string            `yaml:"default_field"`
	Fields       map[string]string `yaml:"fields"` // name -> keyword, text, numeric
}

// Kind converts the declaration into a record kind.
func (k KindConfig) Kind() record.Kind {
	kind := record.Kind{
		Name:         k.Name,
		Index:        k.Index,
		Prefix:       k.Prefix,
		Table:        k.Table,
		DefaultField: k.DefaultField,
	}
	if len(k.Fields) > 0 {
		kind.Fields = make(map[string]record.FieldKind, len(k.Fields))
		for name, fk := range k.Fields {
			kind.Fields[name] = record.FieldKind(fk)
		}
	}
	return kind
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
	if c.HTTP.MaxPageSize <= 0 {
		c.HTTP.MaxPageSize = 100
	}
	if c.Search.Backend == "" {
		c.Search.Backend = BackendRedis
	}
	if c.Search.ReadinessTimeout <= 0 {
		c.Search.ReadinessTimeout = 10
	}
	if c.Search.TimeoutMs <= 0 {
		c.Search.TimeoutMs = 5000
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 10
	}
	if c.Records.Driver == "" {
		c.Records.Driver = RecordsRedis
	}
	for i := range c.Kinds {
		if c.Kinds[i].Index == "" {
			c.Kinds[i].Index = c.Kinds[i].Name
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Search.Backend {
	case BackendRedis:
		if len(c.Search.Addrs) == 0 {
			return fmt.Errorf("search.addrs is required for the redis backend")
		}
	case BackendMeilisearch:
		if c.Search.MeiliHost == "" {
			return fmt.Errorf("search.meili_host is required for the meilisearch backend")
		}
	case BackendBleve:
	default:
		return fmt.Errorf("search.backend must be redis, bleve or meilisearch, got %q", c.Search.Backend)
	}

	switch c.Records.Driver {
	case RecordsRedis:
		if len(c.Search.Addrs) == 0 {
			return fmt.Errorf("search.addrs is required for redis records")
		}
	case RecordsSQLite:
		if c.Records.SQLitePath == "" {
			return fmt.Errorf("records.sqlite_path is required for sqlite records")
		}
	default:
		return fmt.Errorf("records.driver must be redis or sqlite, got %q", c.Records.Driver)
	}

	if len(c.Kinds) == 0 {
		return fmt.Errorf("at least one kind is required")
	}
	seen := make(map[string]bool, len(c.Kinds))
	for i, k := range c.Kinds {
		if seen[k.Name] {
			return fmt.Errorf("kinds[%d]: duplicate kind %q", i, k.Name)
		}
		seen[k.Name] = true
		if err := k.Kind().Validate(); err != nil {
			return fmt.Errorf("kinds[%d]: %w", i, err)
		}
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
