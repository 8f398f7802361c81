package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aradsms/sms_engine/internal/public_api_service/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the handlers under /v1 with the common middleware stack.
func NewRouter(messages *MessageHandler, incoming *IncomingHandler, requestTimeout time.Duration, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/v1", func(v1 chi.Router) {
		messages.RegisterRoutes(v1)
		incoming.RegisterRoutes(v1)
	})
	return r
}
