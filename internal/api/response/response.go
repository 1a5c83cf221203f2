package response

import (
	"encoding/json"
	"net/http"
)

type errorEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// JSON writes data as-is with 200 OK.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Status writes data as-is with the given status.
func Status(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// Error writes a failure envelope. The top-level message mirrors error.message
// for clients that only read the flat shape.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{
		Message: message,
		Error: errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Retryable writes a failure envelope the client may retry later.
func Retryable(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{
		Message: message,
		Error: errorBody{
			Code:      code,
			Message:   message,
			Retryable: true,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
