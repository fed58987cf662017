package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alphagov/rummager/internal/domain/schema"
	"github.com/alphagov/rummager/internal/engine"
	"github.com/alphagov/rummager/internal/query"
)

// Config holds the rummager API configuration.
type Config struct {
	HTTP     HTTPConfig        `yaml:"http"`
	Engine   EngineConfig      `yaml:"engine"`
	Search   SearchConfig      `yaml:"search"`
	Registry RegistryConfig    `yaml:"registry"`
	Boosts   query.BoostConfig `yaml:"boosts"`
	Schema   []SchemaField     `yaml:"schema"`
	Promoted []engine.PromotedResult `yaml:"promoted_results"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds the connection settings for the external search
// engine and the index names this gateway talks to.
type EngineConfig struct {
	BaseURL        string `yaml:"base_url"`
	ContentIndex   string `yaml:"content_index"`
	MetasearchIndex string `yaml:"metasearch_index"`
	SpellingIndex  string `yaml:"spelling_index"`
	OpenTimeoutSec int    `yaml:"open_timeout_sec"`
	ReadTimeoutSec int    `yaml:"read_timeout_sec"`
}

// SearchConfig holds request validation limits and spelling settings.
type SearchConfig struct {
	MaxCount           int      `yaml:"max_count"`
	MaxExampleCount    int      `yaml:"max_example_count"`
	SpellingIgnoreTerms []string `yaml:"spelling_ignore_terms"`
}

// RegistryConfig holds registry cache settings.
type RegistryConfig struct {
	LifetimeHours int `yaml:"lifetime_hours"`
}

// SchemaField is one declared document field.
type SchemaField struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Multivalued bool   `yaml:"multivalued"`
}

// BuildSchema converts the declared field list into a document schema.
func (c Config) BuildSchema() (schema.Schema, error) {
	fields := make([]schema.Field, 0, len(c.Schema))
	for _, sf := range c.Schema {
		f, err := schema.NewField(sf.Name, schema.Kind(sf.Type), sf.Multivalued)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("schema: %w", err)
		}
		fields = append(fields, f)
	}
	return schema.New(fields)
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
	if c.Engine.ContentIndex == "" {
		c.Engine.ContentIndex = "mainstream"
	}
	if c.Engine.MetasearchIndex == "" {
		c.Engine.MetasearchIndex = "metasearch"
	}
	if c.Engine.SpellingIndex == "" {
		c.Engine.SpellingIndex = c.Engine.ContentIndex
	}
	if c.Engine.OpenTimeoutSec <= 0 {
		c.Engine.OpenTimeoutSec = 5
	}
	if c.Engine.ReadTimeoutSec <= 0 {
		c.Engine.ReadTimeoutSec = 5
	}
	if c.Search.MaxCount <= 0 {
		c.Search.MaxCount = 1000
	}
	if c.Search.MaxExampleCount <= 0 {
		c.Search.MaxExampleCount = 5
	}
	if c.Registry.LifetimeHours <= 0 {
		c.Registry.LifetimeHours = 12
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if len(c.Schema) == 0 {
		return fmt.Errorf("schema requires at least one field")
	}
	for _, sf := range c.Schema {
		if !schema.Kind(sf.Type).IsValid() {
			return fmt.Errorf("schema field %q has invalid type %q", sf.Name, sf.Type)
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
