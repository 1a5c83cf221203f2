package scoring

import "github.com/kiranshivaraju/trustlens/pkg/models"

// Thresholds for text and fused scores. Image scores use their own scale.
const (
	reliableThreshold     = 75
	questionableThreshold = 40

	imageReliableThreshold     = 70
	imageQuestionableThreshold = 40
)

// VerdictFor maps a text or fused score to a verdict.
func VerdictFor(score int) models.Verdict {
	switch {
	case score >= reliableThreshold:
		return models.VerdictReliable
	case score >= questionableThreshold:
		return models.VerdictQuestionable
	default:
		return models.VerdictHighRisk
	}
}

// ImageVerdictFor maps an image credibility score to a verdict.
func ImageVerdictFor(score int) models.Verdict {
	switch {
	case score >= imageReliableThreshold:
		return models.VerdictReliable
	case score >= imageQuestionableThreshold:
		return models.VerdictQuestionable
	default:
		return models.VerdictHighRisk
	}
}

// MoreSevere returns whichever verdict carries more risk.
func MoreSevere(a, b models.Verdict) models.Verdict {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// CapToVerdict lowers score to the top of v's band when it sits above it.
// Scores are never raised.
func CapToVerdict(score int, v models.Verdict) int {
	ceiling := 100
	switch v {
	case models.VerdictQuestionable:
		ceiling = reliableThreshold - 1
	case models.VerdictHighRisk:
		ceiling = questionableThreshold - 1
	}
	if score > ceiling {
		return ceiling
	}
	return score
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
