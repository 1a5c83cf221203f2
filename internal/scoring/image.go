package scoring

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/trustlens/pkg/models"
)

// ErrProcessing is returned when image heuristics cannot run.
var ErrProcessing = errors.New("image processing failed")

// Size cut-offs for the image heuristics.
const (
	possibleAIBelow    = 30 * 1024
	reuseLikelyBelow   = 50 * 1024
	largeMetadataAbove = 5 * 1024 * 1024
)

// Penalties applied per risk grade when scoring an image.
const (
	mediumImagePenalty = 20
	highImagePenalty   = 40
)

// AnalyzeImageMetadata derives metadata signals from the buffer size.
func AnalyzeImageMetadata(data []byte) models.ImageMetadata {
	if len(data) == 0 {
		return models.ImageMetadata{MetadataRisk: models.RiskLow}
	}
	size := len(data)
	risk := models.RiskLow
	if size > largeMetadataAbove {
		risk = models.RiskMedium
	}
	return models.ImageMetadata{
		HasMetadata:  true,
		PossibleAI:   size < possibleAIBelow,
		MetadataRisk: risk,
	}
}

// TraceImage estimates how likely the image is recycled content.
func TraceImage(data []byte) models.ImageTracing {
	switch {
	case len(data) == 0:
		return models.ImageTracing{ReusedLikelihood: models.RiskLow, Reason: "Empty image buffer"}
	case len(data) < reuseLikelyBelow:
		return models.ImageTracing{ReusedLikelihood: models.RiskHigh, Reason: "Small file size suggests potential reuse"}
	default:
		return models.ImageTracing{ReusedLikelihood: models.RiskLow, Reason: "File size indicates original content"}
	}
}

// CalculateImageCredibility combines the two sub-analyses into a score.
func CalculateImageCredibility(meta models.ImageMetadata, tracing models.ImageTracing) (int, models.Verdict) {
	score := 100 - imagePenalty(meta.MetadataRisk) - imagePenalty(tracing.ReusedLikelihood)
	score = Clamp(score)
	return score, ImageVerdictFor(score)
}

func imagePenalty(level models.RiskLevel) int {
	switch level {
	case models.RiskMedium:
		return mediumImagePenalty
	case models.RiskHigh:
		return highImagePenalty
	default:
		return 0
	}
}

// AnalyzeImage runs every image heuristic and returns a processed result.
// A nil buffer means the download never produced bytes and is an error.
func AnalyzeImage(data []byte) (analysis models.ImageAnalysis, err error) {
	if data == nil {
		return models.SkippedImage(), fmt.Errorf("%w: no image data", ErrProcessing)
	}
	defer func() {
		if r := recover(); r != nil {
			analysis = models.SkippedImage()
			err = fmt.Errorf("%w: %v", ErrProcessing, r)
		}
	}()

	meta := AnalyzeImageMetadata(data)
	tracing := TraceImage(data)
	score, verdict := CalculateImageCredibility(meta, tracing)

	return models.ImageAnalysis{
		Status:           models.ImageProcessed,
		Metadata:         &meta,
		Tracing:          &tracing,
		CredibilityScore: &score,
		Verdict:          verdict,
	}, nil
}
