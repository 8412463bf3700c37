package app

import (
	"context"
	"net/http"
	"time"

	authapi "liftlog/cmd/internal/auth/api"
	"liftlog/cmd/internal/observability"
	"liftlog/cmd/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	cfg Config,
	backend storage.Backend,
	auth *authapi.Handler,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && cfg.DatabaseURL == "" {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			log.Info("readyz.storage.not_ready", "backend", backend.Name(), "err", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if auth != nil {
		auth.Register(mux)
	}
}

// wrapHTTP applies the middleware chain, outermost first: request logging,
// security headers, CORS, metrics.
func wrapHTTP(h http.Handler, cfg Config, log Logger) http.Handler {
	h = observability.MetricsMiddleware(h)
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	return WithRequestLogging(h, log)
}
