package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/kiranshivaraju/trustlens/internal/ai"
	mw "github.com/kiranshivaraju/trustlens/internal/api/middleware"
	"github.com/kiranshivaraju/trustlens/internal/api/response"
	"github.com/kiranshivaraju/trustlens/internal/fingerprint"
	"github.com/kiranshivaraju/trustlens/internal/pipeline"
)

const (
	maxBodyBytes = 1 << 20
	maxTextRunes = 20000
)

var analyzeValidate = validator.New()

// Analyzer defines the interface the handler depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type analyzeRequest struct {
	Text     string `json:"text"     validate:"required,min=5,max=20000"`
	ImageURL string `json:"imageUrl" validate:"omitempty,http_url"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
func NewAnalyzeHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON in request body", nil)
			return
		}

		if err := analyzeValidate.Struct(req); err != nil {
			details := validationDetails(err)
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", firstMessage(details), details)
			return
		}

		result, err := svc.Analyze(r.Context(), pipeline.Request{
			Text:     req.Text,
			ImageURL: req.ImageURL,
		})
		if err != nil {
			requestID, _ := mw.GetRequestID(r)
			slog.Error("analysis failed", "request_id", requestID, "error", err)

			switch {
			case errors.Is(err, fingerprint.ErrInvalidInput):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Text must be valid UTF-8", nil)
			case errors.Is(err, ai.ErrInputRequired):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"Text is required", nil)
			case errors.Is(err, ai.ErrInferenceTimeout):
				response.Retryable(w, http.StatusServiceUnavailable, "AI_INFERENCE_TIMEOUT",
					"Text analysis took too long and was cancelled")
			case errors.Is(err, ai.ErrQuotaExceeded):
				response.Retryable(w, http.StatusServiceUnavailable, "AI_QUOTA_EXCEEDED",
					"The AI provider is rate limiting requests")
			case errors.Is(err, pipeline.ErrServiceUnavailable):
				response.Retryable(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE",
					"Text analysis is temporarily unavailable")
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, result)
	}
}

// NewAnalyzeInfoHandler returns an http.HandlerFunc for GET /api/v1/analyze.
func NewAnalyzeInfoHandler() http.HandlerFunc {
	info := map[string]any{
		"success":     true,
		"message":     "TrustLens Analyze API",
		"endpoint":    "/api/v1/analyze",
		"method":      http.MethodPost,
		"description": "Analyze text and images for misinformation risk assessment",
		"requestBody": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"required":    true,
				"minLength":   5,
				"maxLength":   maxTextRunes,
				"description": "Text content to analyze",
			},
			"imageUrl": map[string]any{
				"type":        "string",
				"required":    false,
				"format":      "url",
				"description": "Optional image URL to analyze",
			},
		},
		"example": map[string]string{
			"text":     "This is a sample text to analyze for misinformation",
			"imageUrl": "https://example.com/image.jpg",
		},
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, info)
	}
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["body"] = err.Error()
		return details
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Text":
			switch fe.Tag() {
			case "max":
				details["text"] = "Text must be at most 20000 characters"
			default:
				details["text"] = "Text must be at least 5 characters"
			}
		case "ImageURL":
			details["imageUrl"] = "Image URL must be a valid URL"
		default:
			details[fe.Field()] = fe.Error()
		}
	}
	return details
}

func firstMessage(details map[string]string) string {
	if msg, ok := details["text"]; ok {
		return msg
	}
	if msg, ok := details["imageUrl"]; ok {
		return msg
	}
	for _, msg := range details {
		return msg
	}
	return "Invalid request"
}
