package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"
)

const readinessProbeTimeout = 5 * time.Second

// HealthCheck is a named dependency probe used by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports basic liveness for the service.
func HealthHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadyHandler runs every check and answers 503 naming the first failure.
func ReadyHandler(checks ...HealthCheck) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(stdhttp.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"status":       "unhealthy",
					"failed_check": hc.Name,
					"error":        err.Error(),
				})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
