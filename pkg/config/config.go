package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML config file.
const ConfigFileEnv = "NOTEFHIR_CONFIG"

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	LLM        LLMConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Ontology   OntologyConfig
	FHIR       FHIRConfig
	Extraction ExtractionConfig
	OTEL       OTELConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// LLMConfig selects the chat completion provider ("openai" or "anthropic").
type LLMConfig struct {
	Provider string
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	RateLimitRPM   int
	RateLimitBurst int
}

// AnthropicConfig holds Anthropic configuration
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// OntologyConfig holds the terminology search service configuration
type OntologyConfig struct {
	BaseURL         string
	Ontology        string
	Rows            int
	MaxAttempts     int
	CacheTTLSeconds int
	LocalCacheSize  int
}

// FHIRConfig holds the downstream FHIR server configuration
type FHIRConfig struct {
	Enabled bool
	APIBase string
	AppID   string
}

// ExtractionConfig holds prompt and tool settings for note extraction
type ExtractionConfig struct {
	SystemPrompt     string
	ToolsFile        string
	SubjectReference string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables, layered over an optional YAML file
// named by NOTEFHIR_CONFIG. Config file keys are the lower-cased environment names with
// dots, e.g. openai.api_key for OPENAI_API_KEY.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env: v.GetString("app.env"),
		},
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("db.enabled"),
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Database: v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Typesense: TypesenseConfig{
			Enabled: v.GetBool("typesense.enabled"),
			URL:     v.GetString("typesense.url"),
			APIKey:  v.GetString("typesense.api_key"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(v.GetString("llm.provider")),
		},
		OpenAI: OpenAIConfig{
			APIKey:         v.GetString("openai.api_key"),
			Model:          v.GetString("openai.model"),
			BaseURL:        v.GetString("openai.base_url"),
			RateLimitRPM:   v.GetInt("openai.rate_limit_rpm"),
			RateLimitBurst: v.GetInt("openai.rate_limit_burst"),
		},
		Anthropic: AnthropicConfig{
			APIKey:    v.GetString("anthropic.api_key"),
			Model:     v.GetString("anthropic.model"),
			MaxTokens: v.GetInt("anthropic.max_tokens"),
		},
		Ontology: OntologyConfig{
			BaseURL:         v.GetString("ontology.base_url"),
			Ontology:        v.GetString("ontology.name"),
			Rows:            v.GetInt("ontology.rows"),
			MaxAttempts:     v.GetInt("ontology.max_attempts"),
			CacheTTLSeconds: v.GetInt("ontology.cache_ttl_seconds"),
			LocalCacheSize:  v.GetInt("ontology.local_cache_size"),
		},
		FHIR: FHIRConfig{
			Enabled: v.GetBool("fhir.enabled"),
			APIBase: v.GetString("fhir.api_base"),
			AppID:   v.GetString("fhir.app_id"),
		},
		Extraction: ExtractionConfig{
			SystemPrompt:     v.GetString("extraction.system_prompt"),
			ToolsFile:        v.GetString("extraction.tools_file"),
			SubjectReference: v.GetString("extraction.subject_reference"),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("otel.service_name"),
			ServiceVersion: v.GetString("otel.service_version"),
			Endpoint:       v.GetString("otel.endpoint"),
			Enabled:        v.GetBool("otel.enabled"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "notefhir")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("typesense.enabled", false)
	v.SetDefault("typesense.url", "http://localhost:8108")
	v.SetDefault("typesense.api_key", "xyz")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.rate_limit_rpm", 60)
	v.SetDefault("openai.rate_limit_burst", 5)
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-3-5-haiku-20241022")
	v.SetDefault("anthropic.max_tokens", 2048)

	v.SetDefault("ontology.base_url", "https://www.ebi.ac.uk/ols4/api")
	v.SetDefault("ontology.name", "snomed")
	v.SetDefault("ontology.rows", 10)
	v.SetDefault("ontology.max_attempts", 3)
	v.SetDefault("ontology.cache_ttl_seconds", 60*60*24*7)
	v.SetDefault("ontology.local_cache_size", 2048)

	v.SetDefault("fhir.enabled", false)
	v.SetDefault("fhir.api_base", "")
	v.SetDefault("fhir.app_id", "notefhir")

	v.SetDefault("extraction.system_prompt", "")
	v.SetDefault("extraction.tools_file", "")
	v.SetDefault("extraction.subject_reference", "Patient/1")

	v.SetDefault("otel.service_name", "notefhir")
	v.SetDefault("otel.service_version", "1.0.0")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.enabled", false)
}

// Validate checks combinations that cannot work at runtime
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	if c.FHIR.Enabled && c.FHIR.APIBase == "" {
		return fmt.Errorf("FHIR_API_BASE is required when FHIR_ENABLED is true")
	}
	if c.Ontology.BaseURL == "" {
		return fmt.Errorf("ONTOLOGY_BASE_URL is required")
	}
	return nil
}

// IsDev reports whether the process runs in development mode
func (c *Config) IsDev() bool {
	return c.App.Env == "development"
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the HTTP listen address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
