package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plastinin/jobwatch/internal/adapter/http/handler"
	httpmiddleware "github.com/plastinin/jobwatch/internal/adapter/http/middleware"
	"go.uber.org/zap"
)

// NewRouter создаёт и настраивает HTTP роутер.
// outcomeHandler может быть nil, если история итогов выключена.
func NewRouter(
	sessionHandler *handler.SessionHandler,
	outcomeHandler *handler.OutcomeHandler,
	healthHandler *handler.HealthHandler,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.NewLoggingMiddleware(logger))
	r.Use(httpmiddleware.Tracing)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Health check (вне версионирования API)
	r.Get("/health", healthHandler.Check)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/{id}", sessionHandler.Get)
			r.Post("/{id}/refresh", sessionHandler.Refresh)
			r.Post("/{id}/cancel", sessionHandler.Cancel)
			r.Delete("/{id}", sessionHandler.Delete)
		})

		if outcomeHandler != nil {
			r.Route("/outcomes", func(r chi.Router) {
				r.Get("/", outcomeHandler.List)
				r.Get("/{task_id}", outcomeHandler.GetByTaskID)
			})
		}
	})

	return r
}
