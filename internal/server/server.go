package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vasan12sp/distributedRateLimiter/internal/obs"
)

// Routes assembles the HTTP mux: the decision API, the rule invalidation
// hook, health and Prometheus endpoints, all behind request logging.
func Routes(h *Handler, logger zerolog.Logger, gatherer prometheus.Gatherer, promPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/check", h.Check)
	mux.HandleFunc("/v1/rules/invalidate", h.InvalidateRules)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if promPath == "" {
		promPath = "/metrics"
	}
	mux.Handle(promPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return obs.Logger(logger)(mux)
}
