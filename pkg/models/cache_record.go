package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheRecord is a stored analysis keyed by content fingerprint.
// Records are written once and never updated.
type CacheRecord struct {
	Fingerprint string          `db:"fingerprint"  json:"fingerprint"`
	ContentType ContentType     `db:"content_type" json:"contentType"`
	Analysis    json.RawMessage `db:"analysis"     json:"analysis"`
	CreatedAt   time.Time       `db:"created_at"   json:"createdAt"`
}

// NewTextRecord builds a record for a text analysis.
func NewTextRecord(fingerprint string, a TextAnalysis) (*CacheRecord, error) {
	return newRecord(fingerprint, ContentText, a)
}

// NewImageRecord builds a record for an image analysis.
func NewImageRecord(fingerprint string, a ImageAnalysis) (*CacheRecord, error) {
	return newRecord(fingerprint, ContentImage, a)
}

func newRecord(fingerprint string, ct ContentType, v any) (*CacheRecord, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s analysis: %w", ct, err)
	}
	return &CacheRecord{
		Fingerprint: fingerprint,
		ContentType: ct,
		Analysis:    raw,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// TextAnalysis decodes the stored payload as a text analysis.
func (r *CacheRecord) TextAnalysis() (TextAnalysis, error) {
	var a TextAnalysis
	if r.ContentType != ContentText {
		return a, fmt.Errorf("record %s holds %s analysis, not text", r.Fingerprint, r.ContentType)
	}
	if err := json.Unmarshal(r.Analysis, &a); err != nil {
		return a, fmt.Errorf("decoding text analysis: %w", err)
	}
	if a.RiskKeywordsFound == nil {
		a.RiskKeywordsFound = []string{}
	}
	return a, nil
}

// ImageAnalysis decodes the stored payload as an image analysis.
func (r *CacheRecord) ImageAnalysis() (ImageAnalysis, error) {
	var a ImageAnalysis
	if r.ContentType != ContentImage {
		return a, fmt.Errorf("record %s holds %s analysis, not image", r.Fingerprint, r.ContentType)
	}
	if err := json.Unmarshal(r.Analysis, &a); err != nil {
		return a, fmt.Errorf("decoding image analysis: %w", err)
	}
	if a.Status == "" {
		a.Status = ImageProcessed
	}
	return a, nil
}
