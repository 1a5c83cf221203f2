// Package vllm connects to a vLLM server through its OpenAI-compatible API.
package vllm

import (
	"github.com/kiranshivaraju/trustlens/internal/ai/openai"
	"github.com/kiranshivaraju/trustlens/internal/config"
)

// NewProvider returns an OpenAI-compatible provider pointed at cfg.BaseURL.
// vLLM does not check API keys unless started with --api-key.
func NewProvider(cfg config.VLLMConfig) *openai.Provider {
	return openai.NewCompatibleProvider("vllm", cfg.BaseURL, "", cfg.Model)
}
