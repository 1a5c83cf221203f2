package ai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/trustlens/internal/ai/anthropic"
	"github.com/kiranshivaraju/trustlens/internal/ai/ollama"
	"github.com/kiranshivaraju/trustlens/internal/ai/openai"
	"github.com/kiranshivaraju/trustlens/internal/ai/vllm"
	"github.com/kiranshivaraju/trustlens/internal/config"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

// NewProvider constructs the LLM provider named in config.
// Called once at server startup. An empty provider name yields an
// unconfigured provider whose calls fail with ErrProviderUnavailable.
func NewProvider(cfg config.AIConfig) (models.LLMProvider, error) {
	switch cfg.Provider {
	case "":
		return Unconfigured{}, nil
	case "ollama":
		return ollama.NewProvider(cfg.Ollama), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "azure":
		return openai.NewAzureProvider(cfg.Azure), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, azure, anthropic", cfg.Provider)
	}
}

// Unconfigured is the provider used when no LLM is set up.
type Unconfigured struct{}

func (Unconfigured) Name() string { return "unconfigured" }

func (Unconfigured) Complete(context.Context, models.CompletionRequest) (string, error) {
	return "", fmt.Errorf("%w: no AI provider configured", ErrProviderUnavailable)
}

// IsConfigured reports whether p can reach a real model.
func IsConfigured(p models.LLMProvider) bool {
	_, ok := p.(Unconfigured)
	return !ok
}
