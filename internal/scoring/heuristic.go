// Package scoring holds the deterministic, network-free scoring rules:
// the lexical text scorer, the image size heuristics and score fusion.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/trustlens/pkg/models"
)

const (
	baseScore = 100
	// Matches beyond this count cost an extra escalationPenalty each.
	escalationAfter   = 3
	escalationPenalty = 5
	// A fake-news match with a score under this forces High Risk.
	fakeNewsOverrideScore = 50
)

// HeuristicScorer scores text by counting risk phrases.
type HeuristicScorer struct {
	lists []phraseList
}

// NewHeuristicScorer returns a scorer loaded with the built-in phrase lists.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{lists: defaultLists}
}

func (h *HeuristicScorer) Name() string { return "heuristic" }

// ScoreText implements models.TextScorer. It never fails.
func (h *HeuristicScorer) ScoreText(_ context.Context, text string) (models.TextAnalysis, error) {
	return h.Score(text), nil
}

// Score runs the phrase rules over text.
func (h *HeuristicScorer) Score(text string) models.TextAnalysis {
	if strings.TrimSpace(text) == "" {
		return models.TextAnalysis{
			RiskLevel:         models.RiskLow,
			RiskKeywordsFound: []string{},
			CredibilityScore:  baseScore,
			Verdict:           models.VerdictReliable,
			Explanation:       "No text content to analyze.",
		}
	}

	lower := strings.ToLower(text)
	found := []string{}
	counts := make(map[Category]int, len(h.lists))
	score := baseScore

	for _, list := range h.lists {
		for _, phrase := range list.phrases {
			if strings.Contains(lower, phrase) {
				found = append(found, phrase)
				counts[list.category]++
				score -= list.penalty
			}
		}
	}

	total := len(found)
	if total > escalationAfter {
		score -= (total - escalationAfter) * escalationPenalty
	}
	if score < 0 {
		score = 0
	}

	verdict := VerdictFor(score)
	risk := riskForCount(total)

	if fake := counts[CategoryFakeNews]; fake > 0 {
		risk = models.RiskHigh
		if fake >= 2 || score < fakeNewsOverrideScore {
			verdict = models.VerdictHighRisk
		}
	}

	return models.TextAnalysis{
		RiskLevel:         risk,
		RiskKeywordsFound: found,
		CredibilityScore:  score,
		Verdict:           verdict,
		Explanation:       h.explain(counts, total),
	}
}

func riskForCount(n int) models.RiskLevel {
	switch {
	case n == 0:
		return models.RiskLow
	case n <= escalationAfter:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func (h *HeuristicScorer) explain(counts map[Category]int, total int) string {
	if total == 0 {
		return "No sensational, urgent, emotional or unverified language patterns detected."
	}
	parts := make([]string, 0, len(h.lists))
	for _, list := range h.lists {
		if n := counts[list.category]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, list.category))
		}
	}
	msg := fmt.Sprintf("Detected %d risk indicator(s): %s.", total, strings.Join(parts, ", "))
	if counts[CategoryFakeNews] > 0 {
		msg += " Contains phrasing commonly associated with misinformation."
	}
	return msg
}

var _ models.TextScorer = (*HeuristicScorer)(nil)
