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

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// Search limits shared with the request validators.
const (
	maxTopK         = 50
	maxSuggestLimit = 50
)

// Config holds the triage service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Seed      SeedConfig      `yaml:"seed"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig selects the knowledge record store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite, memory (default: memory)
	DSN    string `yaml:"dsn"`
}

// CacheConfig points at an optional Redis or Valkey server holding the
// embedding cache and budget counters. Empty Addrs disables both.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache server is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool { return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider      string       `yaml:"provider"` // openai, ollama, none (default: none)
	APIKey        string       `yaml:"api_key"`
	BaseURL       string       `yaml:"base_url"`
	Model         string       `yaml:"model"`
	Dimensions    int          `yaml:"dimensions"`
	TimeoutMS     int          `yaml:"timeout_ms"`
	RatePerSecond float64      `yaml:"rate_per_second"` // 0 = unlimited
	Burst         int          `yaml:"burst"`
	Budget        BudgetConfig `yaml:"budget"`
}

// SearchConfig holds ranking and request defaults.
type SearchConfig struct {
	MinSimilarity           *float64 `yaml:"min_similarity"`
	DefaultTopK             int      `yaml:"default_top_k"`
	Workers                 int      `yaml:"workers"`
	StrictAutocompleteField bool     `yaml:"strict_autocomplete_field"`
	AutocompleteLimit       int      `yaml:"autocomplete_limit"`
	DiagnosisLimit          int      `yaml:"diagnosis_limit"`
}

// MinSim returns the configured similarity threshold.
func (s SearchConfig) MinSim() float64 {
	if s.MinSimilarity == nil {
		return defaultMinSimilarity
	}
	return *s.MinSimilarity
}

// SeedConfig controls loading fixtures into the store at startup.
type SeedConfig struct {
	File    string `yaml:"file"`
	OnStart bool   `yaml:"on_start"`
}

const defaultMinSimilarity = 0.5

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.Driver == DriverSQLite && c.Database.DSN == "" {
		c.Database.DSN = "triage.db"
	}

	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	c.applyEmbeddingDefaults()

	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 16
	}
	if c.Search.AutocompleteLimit <= 0 {
		c.Search.AutocompleteLimit = 10
	}
	if c.Search.DiagnosisLimit <= 0 {
		c.Search.DiagnosisLimit = 10
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = ProviderNone
	}
	if e.TimeoutMS <= 0 {
		e.TimeoutMS = 2000
	}
	if e.Budget.Action == "" {
		e.Budget.Action = "warn"
	}
	if e.Model != "" {
		return
	}
	switch e.Provider {
	case ProviderOpenAI:
		e.Model = "text-embedding-3-small"
	case ProviderOllama:
		e.Model = "nomic-embed-text"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be postgres, sqlite or memory, got %q", c.Database.Driver)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("embedding.provider must be openai, ollama or none, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.RatePerSecond < 0 {
		return fmt.Errorf("embedding.rate_per_second must not be negative")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}

	if m := c.Search.MinSim(); m < -1 || m > 1 {
		return fmt.Errorf("search.min_similarity must be between -1 and 1, got %g", m)
	}
	if c.Search.DefaultTopK > maxTopK {
		return fmt.Errorf("search.default_top_k must be at most %d, got %d", maxTopK, c.Search.DefaultTopK)
	}
	if c.Search.AutocompleteLimit > maxSuggestLimit {
		return fmt.Errorf("search.autocomplete_limit must be at most %d, got %d", maxSuggestLimit, c.Search.AutocompleteLimit)
	}
	if c.Search.DiagnosisLimit > maxTopK {
		return fmt.Errorf("search.diagnosis_limit must be at most %d, got %d", maxTopK, c.Search.DiagnosisLimit)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to this source file, for tests and `go run` from subdirectories
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

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
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
