package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the TrustLens server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Image    ImageConfig    `yaml:"image"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

// DatabaseConfig configures the durable analysis store. An empty URL disables it.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	MigrationsDir   string        `yaml:"migrationsDir"`
}

// RedisConfig configures the hot cache and rate limiter. An empty URL disables both.
type RedisConfig struct {
	URL       string        `yaml:"url"`
	HotTTL    time.Duration `yaml:"hotTTL"`
	OpTimeout time.Duration `yaml:"opTimeout"`
}

// AIConfig selects the LLM provider. An empty Provider leaves the LLM unconfigured.
type AIConfig struct {
	Provider         string          `yaml:"provider"`
	InferenceTimeout time.Duration   `yaml:"inferenceTimeout"`
	Temperature      float32         `yaml:"temperature"`
	MaxTokens        int             `yaml:"maxTokens"`
	Ollama           OllamaConfig    `yaml:"ollama"`
	VLLM             VLLMConfig      `yaml:"vllm"`
	OpenAI           OpenAIConfig    `yaml:"openai"`
	Azure            AzureConfig     `yaml:"azure"`
	Anthropic        AnthropicConfig `yaml:"anthropic"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type VLLMConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

type AzureConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"apiKey"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"apiVersion"`
}

type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// ScoringConfig picks the required text scoring strategy.
type ScoringConfig struct {
	TextStrategy string `yaml:"textStrategy"`
}

type ImageConfig struct {
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	MaxBytes     int64         `yaml:"maxBytes"`
	UserAgent    string        `yaml:"userAgent"`
}

type HTTPConfig struct {
	CORSOrigins        []string `yaml:"corsOrigins"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
	APIKeyHashes       []string `yaml:"apiKeyHashes"`
}

const (
	StrategyLLM       = "llm"
	StrategyHeuristic = "heuristic"
)

var validProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"azure":     true,
	"anthropic": true,
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Env: "development"},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			MigrationsDir:   "migrations",
		},
		Redis: RedisConfig{
			HotTTL:    24 * time.Hour,
			OpTimeout: 2 * time.Second,
		},
		AI: AIConfig{
			InferenceTimeout: 30 * time.Second,
			Temperature:      0.2,
			MaxTokens:        500,
			Ollama:           OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
			VLLM:             VLLMConfig{BaseURL: "http://localhost:8000/v1"},
			OpenAI:           OpenAIConfig{Model: "gpt-4o-mini"},
			Azure:            AzureConfig{APIVersion: "2024-02-15-preview"},
			Anthropic:        AnthropicConfig{Model: "claude-sonnet-4-5-20250929", BaseURL: "https://api.anthropic.com"},
		},
		Scoring: ScoringConfig{TextStrategy: StrategyLLM},
		Image: ImageConfig{
			FetchTimeout: 5 * time.Second,
			MaxBytes:     20 << 20,
			UserAgent:    defaultUserAgent,
		},
		HTTP: HTTPConfig{
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 60,
		},
	}
}

// Load reads configuration and returns a validated Config.
// Values come from built-in defaults, then the YAML file named by
// TRUSTLENS_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("TRUSTLENS_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = envInt("TRUSTLENS_PORT", cfg.Server.Port)
	cfg.Server.Env = envString("TRUSTLENS_ENV", cfg.Server.Env)

	cfg.Database.URL = envString("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = envDuration("DATABASE_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)
	cfg.Database.MigrationsDir = envString("DATABASE_MIGRATIONS_DIR", cfg.Database.MigrationsDir)

	cfg.Redis.URL = envString("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.HotTTL = envDuration("CACHE_HOT_TTL", cfg.Redis.HotTTL)
	cfg.Redis.OpTimeout = envDuration("CACHE_OP_TIMEOUT", cfg.Redis.OpTimeout)

	ai := &cfg.AI
	ai.Provider = strings.ToLower(envString("AI_PROVIDER", ai.Provider))
	ai.InferenceTimeout = envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", ai.InferenceTimeout)
	ai.Temperature = envFloat("AI_TEMPERATURE", ai.Temperature)
	ai.MaxTokens = envInt("AI_MAX_TOKENS", ai.MaxTokens)
	ai.Ollama.BaseURL = envString("OLLAMA_BASE_URL", ai.Ollama.BaseURL)
	ai.Ollama.Model = envString("OLLAMA_MODEL", ai.Ollama.Model)
	ai.VLLM.BaseURL = envString("VLLM_BASE_URL", ai.VLLM.BaseURL)
	ai.VLLM.Model = envString("VLLM_MODEL", ai.VLLM.Model)
	ai.OpenAI.APIKey = envString("OPENAI_API_KEY", ai.OpenAI.APIKey)
	ai.OpenAI.Model = envString("OPENAI_MODEL", ai.OpenAI.Model)
	ai.OpenAI.BaseURL = envString("OPENAI_BASE_URL", ai.OpenAI.BaseURL)
	ai.Azure.Endpoint = envString("AZURE_OPENAI_ENDPOINT", ai.Azure.Endpoint)
	ai.Azure.APIKey = envString("AZURE_OPENAI_API_KEY", ai.Azure.APIKey)
	ai.Azure.Deployment = envString("AZURE_OPENAI_DEPLOYMENT", ai.Azure.Deployment)
	ai.Azure.APIVersion = envString("AZURE_OPENAI_API_VERSION", ai.Azure.APIVersion)
	ai.Anthropic.APIKey = envString("ANTHROPIC_API_KEY", ai.Anthropic.APIKey)
	ai.Anthropic.Model = envString("ANTHROPIC_MODEL", ai.Anthropic.Model)
	ai.Anthropic.BaseURL = envString("ANTHROPIC_BASE_URL", ai.Anthropic.BaseURL)

	cfg.Scoring.TextStrategy = strings.ToLower(envString("TEXT_SCORER", cfg.Scoring.TextStrategy))

	cfg.Image.FetchTimeout = envDuration("IMAGE_FETCH_TIMEOUT", cfg.Image.FetchTimeout)
	cfg.Image.MaxBytes = int64(envInt("IMAGE_MAX_BYTES", int(cfg.Image.MaxBytes)))
	cfg.Image.UserAgent = envString("IMAGE_USER_AGENT", cfg.Image.UserAgent)

	cfg.HTTP.CORSOrigins = envList("CORS_ALLOWED_ORIGINS", cfg.HTTP.CORSOrigins)
	cfg.HTTP.RateLimitPerMinute = envInt("RATE_LIMIT_PER_MINUTE", cfg.HTTP.RateLimitPerMinute)
	cfg.HTTP.APIKeyHashes = envList("API_KEY_HASHES", cfg.HTTP.APIKeyHashes)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("TRUSTLENS_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
		}
	}
	if c.Redis.URL != "" && !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	switch c.Scoring.TextStrategy {
	case StrategyLLM, StrategyHeuristic:
	default:
		return fmt.Errorf("TEXT_SCORER must be one of llm, heuristic; got %q", c.Scoring.TextStrategy)
	}

	if err := c.AI.validate(); err != nil {
		return err
	}

	if c.Image.FetchTimeout <= 0 {
		return fmt.Errorf("IMAGE_FETCH_TIMEOUT must be positive")
	}
	if c.Image.MaxBytes <= 0 {
		return fmt.Errorf("IMAGE_MAX_BYTES must be positive")
	}

	return nil
}

func (a AIConfig) validate() error {
	if a.Provider == "" {
		return nil
	}
	if !validProviders[a.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of ollama, vllm, openai, azure, anthropic; got %q", a.Provider)
	}
	if a.InferenceTimeout <= 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must be positive")
	}
	if a.MaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", a.MaxTokens)
	}

	switch a.Provider {
	case "openai":
		if a.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
		}
	case "azure":
		if a.Azure.Endpoint == "" || a.Azure.APIKey == "" || a.Azure.Deployment == "" {
			return fmt.Errorf("AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and AZURE_OPENAI_DEPLOYMENT are required when AI_PROVIDER is azure")
		}
	case "anthropic":
		if a.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
		}
	case "vllm":
		if a.VLLM.Model == "" {
			return fmt.Errorf("VLLM_MODEL is required when AI_PROVIDER is vllm")
		}
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float32) float32 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envList splits a comma-separated value, dropping empty entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
