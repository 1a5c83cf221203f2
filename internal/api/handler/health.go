package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/kiranshivaraju/trustlens/internal/api/response"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency. A nil Check marks the dependency as disabled.
type Check func(ctx context.Context) error

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
func NewHealthHandler(scorer string, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		services := make(map[string]string, len(names))
		degraded := false
		for _, name := range names {
			check := checks[name]
			switch {
			case check == nil:
				services[name] = "disabled"
			case check(ctx) != nil:
				services[name] = "degraded"
				degraded = true
			default:
				services[name] = "ok"
			}
		}

		status, code := "ok", http.StatusOK
		if degraded {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		response.Status(w, code, map[string]any{
			"success":  !degraded,
			"status":   status,
			"scorer":   scorer,
			"services": services,
		})
	}
}
