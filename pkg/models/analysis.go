package models

import "bytes"

// Verdict is the categorical label derived from a credibility score.
type Verdict string

const (
	VerdictReliable     Verdict = "Reliable"
	VerdictQuestionable Verdict = "Questionable"
	VerdictHighRisk     Verdict = "High Risk"
)

// Valid reports whether v is one of the known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictReliable, VerdictQuestionable, VerdictHighRisk:
		return true
	}
	return false
}

// Severity orders verdicts from least (0) to most (2) severe.
// Unknown verdicts rank as the most severe.
func (v Verdict) Severity() int {
	switch v {
	case VerdictReliable:
		return 0
	case VerdictQuestionable:
		return 1
	default:
		return 2
	}
}

// RiskLevel grades a risk signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// ContentType identifies what a fingerprint was computed over.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
)

// ImageStatus tells whether image analysis ran.
type ImageStatus string

const (
	ImageSkipped   ImageStatus = "skipped"
	ImageProcessed ImageStatus = "processed"
)

// TextAnalysis is the output of a text scorer.
type TextAnalysis struct {
	RiskLevel         RiskLevel `json:"riskLevel"`
	RiskKeywordsFound []string  `json:"riskKeywordsFound"`
	CredibilityScore  int       `json:"credibilityScore"`
	Verdict           Verdict   `json:"verdict"`
	Explanation       string    `json:"explanation"`
}

// ImageMetadata holds the size-based metadata heuristics.
// PossibleScreenshot and HasExif only appear in records written by older
// releases and are read for fusion compatibility.
type ImageMetadata struct {
	HasMetadata        bool      `json:"hasMetadata"`
	PossibleAI         bool      `json:"possibleAI"`
	MetadataRisk       RiskLevel `json:"metadataRisk"`
	PossibleScreenshot bool      `json:"possibleScreenshot,omitempty"`
	HasExif            bool      `json:"hasExif,omitempty"`
}

// ImageTracing holds the reuse-likelihood heuristic.
// ReusedImage is a legacy flag, see ImageMetadata.
type ImageTracing struct {
	ReusedLikelihood RiskLevel `json:"reusedLikelihood"`
	Reason           string    `json:"reason"`
	ReusedImage      bool      `json:"reusedImage,omitempty"`
}

// ImageAnalysis is either skipped or a processed result.
// A processed record without CredibilityScore predates image scoring.
//
// LegacyReused and LegacyMetadataRisk are top-level flags some old records
// carry. They say nothing about whether the result came from the cache.
type ImageAnalysis struct {
	Status             ImageStatus    `json:"status"`
	Metadata           *ImageMetadata `json:"metadata,omitempty"`
	Tracing            *ImageTracing  `json:"tracing,omitempty"`
	CredibilityScore   *int           `json:"credibilityScore,omitempty"`
	Verdict            Verdict        `json:"verdict,omitempty"`
	LegacyReused       LegacyFlag     `json:"reused,omitempty"`
	LegacyMetadataRisk LegacyFlag     `json:"metadataRisk,omitempty"`
}

// LegacyFlag is set only by a literal JSON true; any other value reads as false.
type LegacyFlag bool

func (f *LegacyFlag) UnmarshalJSON(b []byte) error {
	*f = LegacyFlag(bytes.Equal(bytes.TrimSpace(b), []byte("true")))
	return nil
}

// SkippedImage returns the degraded image result.
func SkippedImage() ImageAnalysis {
	return ImageAnalysis{Status: ImageSkipped}
}

// FinalResult is the fused score. It is never persisted.
type FinalResult struct {
	FinalScore   int     `json:"finalScore"`
	FinalVerdict Verdict `json:"finalVerdict"`
}
