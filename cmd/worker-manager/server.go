// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"fourget-bridge/internal/common/sidecar"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readinessCheck returns nil when a dependency can serve jobs.
type readinessCheck func(ctx context.Context) error

const readinessTimeout = 3 * time.Second

func newServeMux(checks map[string]readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status, code := "ready", http.StatusOK
		report := make(map[string]string, len(checks))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				report[name] = err.Error()
				status, code = "not_ready", http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}

		writeJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": report,
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// sidecarReady accepts an ok or degraded sidecar. Only a failing or
// unreachable one blocks readiness.
func sidecarReady(client *sidecar.Client) readinessCheck {
	return func(ctx context.Context) error {
		health, err := client.Health(ctx)
		if err != nil {
			return err
		}
		if health.Status == "error" {
			return fmt.Errorf("sidecar status is %s", health.Status)
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
