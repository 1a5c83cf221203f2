package scoring

import (
	"math"

	"github.com/kiranshivaraju/trustlens/pkg/models"
)

// Fusion weights and the penalties applied to legacy image records.
const (
	textWeight  = 6
	imageWeight = 4

	legacyReusePenalty    = 25
	legacyMetadataPenalty = 15
)

// Fuse combines the text and image analyses into one score and verdict.
// A nil text analysis fails open to a reliable result.
func Fuse(text *models.TextAnalysis, image models.ImageAnalysis) models.FinalResult {
	if text == nil {
		return models.FinalResult{FinalScore: 100, FinalVerdict: models.VerdictReliable}
	}

	score := text.CredibilityScore

	if image.Status != models.ImageSkipped {
		if image.CredibilityScore != nil {
			score = weightedRound(text.CredibilityScore, *image.CredibilityScore)
		} else {
			score = applyLegacyPenalties(score, image)
		}
	}

	score = Clamp(score)
	return models.FinalResult{FinalScore: score, FinalVerdict: VerdictFor(score)}
}

// weightedRound returns round(0.6*t + 0.4*i) with halves rounded up.
func weightedRound(t, i int) int {
	sum := textWeight*t + imageWeight*i
	return int(math.Floor(float64(sum)/10 + 0.5))
}

func applyLegacyPenalties(score int, image models.ImageAnalysis) int {
	reused := bool(image.LegacyReused) ||
		(image.Tracing != nil && image.Tracing.ReusedImage)
	if reused {
		score -= legacyReusePenalty
	}

	metadataRisk := bool(image.LegacyMetadataRisk) ||
		(image.Metadata != nil && (image.Metadata.PossibleScreenshot || image.Metadata.HasExif))
	if metadataRisk {
		score -= legacyMetadataPenalty
	}
	return score
}
