package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{DailyTokenLimit: 1000000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	minSim := 1.5
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.dsn"},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"negative dimensions", func(c *Config) { c.Embedding.Dimensions = -1 }, "embedding.dimensions"},
		{"negative rate", func(c *Config) { c.Embedding.RatePerSecond = -2 }, "rate_per_second"},
		{"min similarity", func(c *Config) { c.Search.MinSimilarity = &minSim }, "search.min_similarity"},
		{"top_k", func(c *Config) { c.Search.DefaultTopK = 51 }, "search.default_top_k"},
		{"autocomplete limit", func(c *Config) { c.Search.AutocompleteLimit = 100 }, "search.autocomplete_limit"},
		{"diagnosis limit", func(c *Config) { c.Search.DiagnosisLimit = 60 }, "search.diagnosis_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Provider != ProviderNone {
		t.Errorf("expected provider=none, got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.TimeoutMS != 2000 {
		t.Errorf("expected TimeoutMS=2000, got %d", cfg.Embedding.TimeoutMS)
	}
	if cfg.Search.MinSim() != 0.5 {
		t.Errorf("expected MinSim=0.5, got %g", cfg.Search.MinSim())
	}
	if cfg.Search.DefaultTopK != 10 || cfg.Search.AutocompleteLimit != 10 || cfg.Search.Workers != 16 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:      HTTPConfig{Port: 9000, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{Driver: DriverSQLite, DSN: "/tmp/k.db"},
		Embedding: EmbeddingConfig{Provider: ProviderOllama, Model: "mxbai-embed-large"},
		Search:    SearchConfig{MinSimilarity: &zero, DefaultTopK: 25},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Database.DSN != "/tmp/k.db" {
		t.Errorf("dsn overridden: %q", cfg.Database.DSN)
	}
	if cfg.Embedding.Model != "mxbai-embed-large" {
		t.Errorf("model overridden: %q", cfg.Embedding.Model)
	}
	if cfg.Search.MinSim() != 0 {
		t.Errorf("explicit zero threshold overridden: %g", cfg.Search.MinSim())
	}
	if cfg.Search.DefaultTopK != 25 {
		t.Errorf("top_k overridden: %d", cfg.Search.DefaultTopK)
	}
}

func TestApplyDefaults_ModelByProvider(t *testing.T) {
	for provider, model := range map[string]string{
		ProviderOpenAI: "text-embedding-3-small",
		ProviderOllama: "nomic-embed-text",
		ProviderNone:   "",
	} {
		cfg := Config{Embedding: EmbeddingConfig{Provider: provider}}
		cfg.ApplyDefaults()
		if cfg.Embedding.Model != model {
			t.Errorf("%s: got model %q, want %q", provider, cfg.Embedding.Model, model)
		}
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TRIAGE_TEST_KEY", "sk-test")
	t.Setenv("TRIAGE_TEST_PORT", "")

	cfg, err := Parse([]byte(`
http:
  port: ${TRIAGE_TEST_PORT:-9090}
database:
  driver: sqlite
  dsn: ":memory:"
embedding:
  provider: openai
  api_key: ${TRIAGE_TEST_KEY}
  budget:
    daily_token_limit: 5000
    action: reject
search:
  min_similarity: 0.3
  strict_autocomplete_field: true
auth:
  api_keys: ["a", "b"]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key: got %q", cfg.Embedding.APIKey)
	}
	if !cfg.Embedding.Budget.Enabled() || cfg.Embedding.Budget.Action != "reject" {
		t.Errorf("budget: %+v", cfg.Embedding.Budget)
	}
	if cfg.Search.MinSim() != 0.3 || !cfg.Search.StrictAutocompleteField {
		t.Errorf("search: %+v", cfg.Search)
	}
	if len(cfg.Auth.APIKeys) != 2 {
		t.Errorf("api keys: %v", cfg.Auth.APIKeys)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("database:\n  driver: oracle\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 7070 {
		t.Errorf("port: got %d", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("Load(%s): %v", env, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TRIAGE_SET", "value")
	got := string(expandEnvVars([]byte("a=${TRIAGE_SET} b=${TRIAGE_UNSET_VAR:-fallback} c=${TRIAGE_UNSET_VAR}")))
	want := "a=value b=fallback c="
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_ProdWithoutAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("prod")
	if err != nil {
		t.Fatalf("missing credentials must not block startup: %v", err)
	}
	if cfg.Embedding.Provider != ProviderOpenAI || cfg.Embedding.APIKey != "" {
		t.Errorf("embedding: got provider %q key %q", cfg.Embedding.Provider, cfg.Embedding.APIKey)
	}
}
