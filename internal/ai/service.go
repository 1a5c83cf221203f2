package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/trustlens/internal/scoring"
	"github.com/kiranshivaraju/trustlens/pkg/models"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 500
	maxExplanationLen  = 4000
)

// SemanticScorer scores text by asking an LLM for a structured verdict.
type SemanticScorer struct {
	provider    models.LLMProvider
	timeout     time.Duration
	temperature float32
	maxTokens   int
}

// ScorerOption customizes a SemanticScorer.
type ScorerOption func(*SemanticScorer)

func WithTemperature(t float32) ScorerOption {
	return func(s *SemanticScorer) { s.temperature = t }
}

func WithMaxTokens(n int) ScorerOption {
	return func(s *SemanticScorer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewSemanticScorer creates a scorer around provider. A zero timeout
// leaves the caller's context as the only bound.
func NewSemanticScorer(provider models.LLMProvider, timeout time.Duration, opts ...ScorerOption) *SemanticScorer {
	s := &SemanticScorer{
		provider:    provider,
		timeout:     timeout,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SemanticScorer) Name() string { return "llm:" + s.provider.Name() }

// ScoreText implements models.TextScorer.
func (s *SemanticScorer) ScoreText(ctx context.Context, text string) (models.TextAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return models.TextAnalysis{}, ErrInputRequired
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.Complete(ctx, models.CompletionRequest{
		System:      SystemPrompt(),
		User:        UserPrompt(text),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		err = classifyProviderError(ctx, err)
		slog.Warn("llm scoring failed", "provider", s.provider.Name(), "error", err)
		return models.TextAnalysis{}, err
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		slog.Warn("llm response rejected", "provider", s.provider.Name(), "error", err)
		return models.TextAnalysis{}, err
	}
	return analysis, nil
}

// classifyProviderError maps a provider failure onto the package sentinels.
func classifyProviderError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrInferenceTimeout),
		errors.Is(err, ErrQuotaExceeded):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrInferenceTimeout, err)
	}

	var pe *models.ProviderError
	if errors.As(err, &pe) && pe.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
}

// ParseAnalysis validates and normalizes a raw model reply.
// riskLevel, credibilityScore, verdict and explanation are required;
// riskKeywordsFound falls back to an empty list.
func ParseAnalysis(raw string) (models.TextAnalysis, error) {
	content := StripCodeFence(raw)
	if content == "" {
		return models.TextAnalysis{}, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return models.TextAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var (
		riskLevel   string
		score       float64
		verdict     string
		explanation string
	)
	if err := requireString(fields, "riskLevel", &riskLevel); err != nil {
		return models.TextAnalysis{}, err
	}
	if err := requireField(fields, "credibilityScore", &score); err != nil {
		return models.TextAnalysis{}, err
	}
	if err := requireString(fields, "verdict", &verdict); err != nil {
		return models.TextAnalysis{}, err
	}
	if err := requireString(fields, "explanation", &explanation); err != nil {
		return models.TextAnalysis{}, err
	}

	// The stricter of the two signals wins; a score above the verdict's band
	// is pulled down so the pair stays consistent.
	normScore := int(math.Max(0, math.Min(100, math.Round(score))))
	normVerdict := scoring.MoreSevere(normalizeVerdict(verdict), scoring.VerdictFor(normScore))
	normScore = scoring.CapToVerdict(normScore, normVerdict)

	return models.TextAnalysis{
		RiskLevel:         normalizeRiskLevel(riskLevel),
		RiskKeywordsFound: keywords(fields["riskKeywordsFound"]),
		CredibilityScore:  normScore,
		Verdict:           normVerdict,
		Explanation:       truncateString(strings.TrimSpace(explanation), maxExplanationLen),
	}, nil
}

// requireField decodes a present, non-null field into dst.
func requireField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("%w: missing %s", ErrMalformedResponse, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid %s: %v", ErrMalformedResponse, name, err)
	}
	return nil
}

// requireString is requireField for strings that must not be blank.
func requireString(fields map[string]json.RawMessage, name string, dst *string) error {
	if err := requireField(fields, name, dst); err != nil {
		return err
	}
	if strings.TrimSpace(*dst) == "" {
		return fmt.Errorf("%w: empty %s", ErrMalformedResponse, name)
	}
	return nil
}

// keywords keeps the string entries of a JSON array; anything else yields an empty list.
func keywords(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StripCodeFence removes a surrounding ```json or ``` fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	default:
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeVerdict(v string) models.Verdict {
	for _, known := range []models.Verdict{models.VerdictReliable, models.VerdictQuestionable, models.VerdictHighRisk} {
		if strings.EqualFold(strings.TrimSpace(v), string(known)) {
			return known
		}
	}
	return models.VerdictHighRisk
}

func normalizeRiskLevel(r string) models.RiskLevel {
	level := models.RiskLevel(strings.ToLower(strings.TrimSpace(r)))
	if level.Valid() {
		return level
	}
	return models.RiskHigh
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}

var _ models.TextScorer = (*SemanticScorer)(nil)
