package models

import (
	"encoding/json"
	"testing"
)

func TestImageAnalysis_LegacyTopLevelFlags(t *testing.T) {
	rec := &CacheRecord{
		Fingerprint: "legacy",
		ContentType: ContentImage,
		Analysis:    json.RawMessage(`{"status":"processed","reused":true,"metadataRisk":true}`),
	}

	a, err := rec.ImageAnalysis()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.LegacyReused || !a.LegacyMetadataRisk {
		t.Fatalf("expected both legacy flags set, got %+v", a)
	}
	if a.CredibilityScore != nil {
		t.Fatalf("expected no credibility score on legacy record")
	}
}

func TestImageAnalysis_LegacyFlagsIgnoreNonBooleans(t *testing.T) {
	rec := &CacheRecord{
		Fingerprint: "odd",
		ContentType: ContentImage,
		Analysis:    json.RawMessage(`{"status":"processed","reused":"yes","metadataRisk":"low"}`),
	}

	a, err := rec.ImageAnalysis()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.LegacyReused || a.LegacyMetadataRisk {
		t.Fatalf("expected legacy flags unset, got %+v", a)
	}
}

func TestImageAnalysis_NewRecordsOmitLegacyFlags(t *testing.T) {
	score := 60
	rec, err := NewImageRecord("fresh", ImageAnalysis{
		Status:           ImageProcessed,
		CredibilityScore: &score,
		Verdict:          VerdictQuestionable,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec.Analysis, &fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"reused", "metadataRisk"} {
		if _, ok := fields[name]; ok {
			t.Errorf("expected %q to be omitted, got %s", name, rec.Analysis)
		}
	}
}

func TestTextAnalysis_WrongContentType(t *testing.T) {
	rec := &CacheRecord{Fingerprint: "img", ContentType: ContentImage, Analysis: json.RawMessage(`{}`)}
	if _, err := rec.TextAnalysis(); err == nil {
		t.Fatal("expected error decoding image record as text")
	}
}
