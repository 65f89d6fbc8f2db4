package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.Get("/ws", c.serveWS)
	r.Get("/healthz", c.healthz)
	r.Method(http.MethodGet, "/metrics", c.metrics.Handler())

	return r
}

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	if c.healthcheck != nil {
		if err := c.healthcheck(r.Context()); err != nil {
			c.logger.WarnContext(r.Context(), "healthcheck failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
