package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiranshivaraju/trustlens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// managedKeys are cleared before each test so the host environment cannot leak in.
var managedKeys = []string{
	"TRUSTLENS_CONFIG", "TRUSTLENS_PORT", "TRUSTLENS_ENV",
	"DATABASE_URL", "REDIS_URL", "CACHE_HOT_TTL", "CACHE_OP_TIMEOUT",
	"AI_PROVIDER", "AI_INFERENCE_TIMEOUT_SECS", "AI_TEMPERATURE", "AI_MAX_TOKENS",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "AZURE_OPENAI_DEPLOYMENT", "AZURE_OPENAI_API_VERSION",
	"ANTHROPIC_API_KEY", "VLLM_MODEL", "VLLM_BASE_URL", "OLLAMA_BASE_URL", "OLLAMA_MODEL",
	"TEXT_SCORER", "IMAGE_FETCH_TIMEOUT", "IMAGE_MAX_BYTES",
	"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE", "API_KEY_HASHES",
}

// setEnv clears managed keys, then sets the given environment for the test.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.HotTTL)
	assert.Equal(t, 2*time.Second, cfg.Redis.OpTimeout)
	assert.Empty(t, cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.InferenceTimeout)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, 500, cfg.AI.MaxTokens)
	assert.Equal(t, config.StrategyLLM, cfg.Scoring.TextStrategy)
	assert.Equal(t, 5*time.Second, cfg.Image.FetchTimeout)
	assert.Equal(t, int64(20<<20), cfg.Image.MaxBytes)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 60, cfg.HTTP.RateLimitPerMinute)
	assert.Empty(t, cfg.HTTP.APIKeyHashes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TRUSTLENS_PORT":            "9090",
		"TRUSTLENS_ENV":             "production",
		"DATABASE_URL":              "postgres://u:p@localhost:5432/trustlens?sslmode=disable",
		"REDIS_URL":                 "redis://localhost:6379",
		"CACHE_HOT_TTL":             "1h",
		"AI_PROVIDER":               "OLLAMA",
		"AI_INFERENCE_TIMEOUT_SECS": "12",
		"TEXT_SCORER":               "heuristic",
		"IMAGE_FETCH_TIMEOUT":       "3s",
		"CORS_ALLOWED_ORIGINS":      "https://a.example, https://b.example,",
		"API_KEY_HASHES":            "$2a$10$abc,$2a$10$def",
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.Equal(t, time.Hour, cfg.Redis.HotTTL)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 12*time.Second, cfg.AI.InferenceTimeout)
	assert.Equal(t, config.StrategyHeuristic, cfg.Scoring.TextStrategy)
	assert.Equal(t, 3*time.Second, cfg.Image.FetchTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, []string{"$2a$10$abc", "$2a$10$def"}, cfg.HTTP.APIKeyHashes)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setEnv(t, map[string]string{"TRUSTLENS_PORT": "not-a-number"})

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnv(t, map[string]string{"TRUSTLENS_PORT": "70000"})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTLENS_PORT")
}

func TestLoad_InvalidRedisURL(t *testing.T) {
	setEnv(t, map[string]string{"REDIS_URL": "localhost:6379"})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_InvalidTextStrategy(t *testing.T) {
	setEnv(t, map[string]string{"TEXT_SCORER": "magic"})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEXT_SCORER")
}

func TestLoad_UnknownProvider(t *testing.T) {
	setEnv(t, map[string]string{"AI_PROVIDER": "palm"})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_PROVIDER")
}

func TestLoad_ProviderCredentials(t *testing.T) {
	tests := []struct {
		provider string
		missing  string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"azure", "AZURE_OPENAI_ENDPOINT"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"vllm", "VLLM_MODEL"},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			setEnv(t, map[string]string{"AI_PROVIDER": tc.provider})

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.missing)
		})
	}
}

func TestLoad_AzureComplete(t *testing.T) {
	setEnv(t, map[string]string{
		"AI_PROVIDER":             "azure",
		"AZURE_OPENAI_ENDPOINT":   "https://example.openai.azure.com",
		"AZURE_OPENAI_API_KEY":    "key",
		"AZURE_OPENAI_DEPLOYMENT": "gpt-4o",
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.AI.Azure.Deployment)
	assert.Equal(t, "2024-02-15-preview", cfg.AI.Azure.APIVersion)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trustlens.yaml")
	yamlDoc := `
server:
  port: 7070
  env: staging
redis:
  url: redis://cache:6379
  hotTTL: 30m
ai:
  provider: ollama
  ollama:
    model: mistral
scoring:
  textStrategy: heuristic
image:
  fetchTimeout: 2s
http:
  corsOrigins:
    - https://x.example
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	setEnv(t, map[string]string{
		"TRUSTLENS_CONFIG": path,
		"TRUSTLENS_ENV":    "production",
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "redis://cache:6379", cfg.Redis.URL)
	assert.Equal(t, 30*time.Minute, cfg.Redis.HotTTL)
	assert.Equal(t, "mistral", cfg.AI.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.AI.Ollama.BaseURL)
	assert.Equal(t, config.StrategyHeuristic, cfg.Scoring.TextStrategy)
	assert.Equal(t, 2*time.Second, cfg.Image.FetchTimeout)
	assert.Equal(t, []string{"https://x.example"}, cfg.HTTP.CORSOrigins)
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	setEnv(t, map[string]string{"TRUSTLENS_CONFIG": filepath.Join(t.TempDir(), "nope.yaml")})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	setEnv(t, map[string]string{"TRUSTLENS_CONFIG": path})

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
