// Package models contains shared data models used across the TrustLens codebase.
package models

import (
	"context"
	"fmt"
)

// LLMProvider is the interface every generative model integration implements.
// Never call a vendor SDK directly from scoring code; inject this instead.
type LLMProvider interface {
	// Complete sends a system and user prompt and returns the raw text reply.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// CompletionRequest is the input to a single chat completion.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSONMode    bool // Ask the provider to constrain output to a JSON object
}

// TextScorer produces a credibility analysis for a piece of text.
// The heuristic and LLM scorers are interchangeable implementations.
type TextScorer interface {
	ScoreText(ctx context.Context, text string) (TextAnalysis, error)
	Name() string
}

// ProviderError is returned by providers when the upstream call fails.
// StatusCode is zero when no HTTP response was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
