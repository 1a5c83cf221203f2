package ai

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrQuotaExceeded       = errors.New("ai provider quota exceeded")
	ErrMalformedResponse   = errors.New("ai provider returned malformed response")
	ErrInputRequired       = errors.New("text input is required")
)
