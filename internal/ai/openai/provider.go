// Package openai talks to OpenAI, Azure OpenAI and OpenAI-compatible servers.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/kiranshivaraju/trustlens/internal/config"
	"github.com/kiranshivaraju/trustlens/pkg/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// Provider implements models.LLMProvider using the chat completions API.
type Provider struct {
	client *goopenai.Client
	model  string
	name   string
}

// NewProvider creates a provider for api.openai.com or cfg.BaseURL.
func NewProvider(cfg config.OpenAIConfig) *Provider {
	c := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Provider{client: goopenai.NewClientWithConfig(c), model: cfg.Model, name: "openai"}
}

// NewAzureProvider creates a provider bound to one Azure OpenAI deployment.
func NewAzureProvider(cfg config.AzureConfig) *Provider {
	c := goopenai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	if cfg.APIVersion != "" {
		c.APIVersion = cfg.APIVersion
	}
	deployment := cfg.Deployment
	c.AzureModelMapperFunc = func(string) string { return deployment }
	return &Provider{client: goopenai.NewClientWithConfig(c), model: deployment, name: "azure"}
}

// NewCompatibleProvider targets any server that speaks the OpenAI chat API.
func NewCompatibleProvider(name, baseURL, apiKey, model string) *Provider {
	c := goopenai.DefaultConfig(apiKey)
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return &Provider{client: goopenai.NewClientWithConfig(c), model: model, name: name}
}

func (p *Provider) Name() string { return p.name }

// Model returns the model or deployment the provider sends requests to.
func (p *Provider) Model() string { return p.model }

func (p *Provider) Complete(ctx context.Context, r models.CompletionRequest) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: r.System},
			{Role: goopenai.ChatMessageRoleUser, Content: r.User},
		},
	}
	if r.JSONMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// Reasoning models take MaxCompletionTokens and reject a custom temperature.
	if isReasoningModel(p.model) {
		req.MaxCompletionTokens = r.MaxTokens
	} else {
		req.MaxTokens = r.MaxTokens
		req.Temperature = r.Temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) wrapError(err error) error {
	pe := &models.ProviderError{Provider: p.name, Err: err}

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

var _ models.LLMProvider = (*Provider)(nil)
