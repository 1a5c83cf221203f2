package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/kiranshivaraju/trustlens/internal/api/response"
)

// Recovery converts a panic in an analyze or health handler into a 500
// INTERNAL_ERROR. The stack goes to the log only; the client gets the
// request ID to quote. http.ErrAbortHandler is re-raised so net/http can
// drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			requestID, _ := GetRequestID(r)
			slog.Error("handler panicked",
				"request_id", requestID,
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			var details map[string]string
			if requestID != "" {
				details = map[string]string{"requestId": requestID}
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", details)
		}()
		next.ServeHTTP(w, r)
	})
}
