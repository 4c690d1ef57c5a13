// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml)
//  3. Default values
//
// Sensitive values (admin password, API keys) are never logged; Config
// masks them in its JSON and string forms. Validation is fail-fast: Load
// returns an error rather than letting a bad value surface later.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidProvider indicates the model provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates a token budget is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidTopK indicates a retrieval depth is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrMissingDir indicates a required directory setting is empty.
	ErrMissingDir = errors.New("missing directory setting")
)

// Model provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// HTTP server
	Addr string `mapstructure:"addr" json:"addr"`

	// Model provider and generation configuration
	Provider      string  `mapstructure:"provider" json:"provider"` // "googleai" (default), "openai"
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`

	// OpenAI-compatible endpoint (also covers local llama.cpp servers)
	OpenAIBaseURL string `mapstructure:"openai_base_url" json:"openai_base_url"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key" json:"openai_api_key"` // SENSITIVE: masked in MarshalJSON

	// Filesystem layout
	DataDir   string `mapstructure:"data_dir" json:"data_dir"`     // source documents
	ModelsDir string `mapstructure:"models_dir" json:"models_dir"` // local .gguf model archives
	IndexDir  string `mapstructure:"index_dir" json:"index_dir"`   // persistent vector index

	// Knowledge base
	Collection   string `mapstructure:"collection" json:"collection"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval and answer generation
	TopK              int  `mapstructure:"top_k" json:"top_k"`
	StreamTopK        int  `mapstructure:"stream_top_k" json:"stream_top_k"`
	ContextBudget     int  `mapstructure:"context_budget" json:"context_budget"`
	StreamBudget      int  `mapstructure:"stream_budget" json:"stream_budget"`
	StreamMaxTokens   int  `mapstructure:"stream_max_tokens" json:"stream_max_tokens"`
	FallbackMaxTokens int  `mapstructure:"fallback_max_tokens" json:"fallback_max_tokens"`
	UseLLMFallback    bool `mapstructure:"use_llm_fallback" json:"use_llm_fallback"`

	// Admin panel
	AdminPassword string `mapstructure:"admin_password" json:"admin_password"` // SENSITIVE: masked in MarshalJSON

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.campusqa")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("addr", ":8080")

	viper.SetDefault("provider", ProviderGoogleAI)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", "text-embedding-004")
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 150)

	viper.SetDefault("data_dir", "data")
	viper.SetDefault("models_dir", "models")
	viper.SetDefault("index_dir", "index")

	viper.SetDefault("collection", "campus_docs")
	viper.SetDefault("chunk_size", 500)
	viper.SetDefault("chunk_overlap", 50)

	viper.SetDefault("top_k", 2)
	viper.SetDefault("stream_top_k", 3)
	viper.SetDefault("context_budget", 800)
	viper.SetDefault("stream_budget", 600)
	viper.SetDefault("stream_max_tokens", 512)
	viper.SetDefault("fallback_max_tokens", 120)
	viper.SetDefault("use_llm_fallback", false)

	viper.SetDefault("admin_password", "admin123")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("addr", "CAMPUSQA_ADDR")
	mustBind("provider", "CAMPUSQA_PROVIDER")
	mustBind("model_name", "CAMPUSQA_MODEL_NAME")
	mustBind("embedder_model", "CAMPUSQA_EMBEDDER_MODEL")
	mustBind("data_dir", "CAMPUSQA_DATA_DIR")
	mustBind("models_dir", "CAMPUSQA_MODELS_DIR")
	mustBind("index_dir", "CAMPUSQA_INDEX_DIR")
	mustBind("admin_password", "CAMPUSQA_ADMIN_PASSWORD")
	mustBind("log_level", "CAMPUSQA_LOG_LEVEL")
	mustBind("log_json", "CAMPUSQA_LOG_JSON")

	mustBind("openai_base_url", "OPENAI_BASE_URL")
	mustBind("openai_api_key", "OPENAI_API_KEY")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked; longer ones keep the first and last two characters for
// debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.AdminPassword = maskSecret(a.AdminPassword)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". A ModelName already containing
// "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return c.Provider + "/" + c.ModelName
}

// LogSlogLevel maps the configured log level onto slog.
func (c *Config) LogSlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
