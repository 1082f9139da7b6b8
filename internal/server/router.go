package server

import (
	"net/http"

	"github.com/cloo-solutions/pulsetrack/internal/api"
	"github.com/cloo-solutions/pulsetrack/internal/api/handlers"
	"github.com/cloo-solutions/pulsetrack/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	MemberHandler   *handlers.MemberHandler
	StatusHandler   *handlers.StatusUpdateHandler
	GoalHandler     *handlers.GoalHandler
	TaskHandler     *handlers.TaskHandler
	InsightsHandler *handlers.InsightsHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/team-members", func(r chi.Router) {
			r.Post("/", cfg.MemberHandler.Create)
			r.Get("/", cfg.MemberHandler.List)
			r.Get("/{id}", cfg.MemberHandler.Get)
			r.Delete("/{id}", cfg.MemberHandler.Delete)
		})

		r.Route("/status-updates", func(r chi.Router) {
			r.Post("/", cfg.StatusHandler.Create)
			r.Get("/", cfg.StatusHandler.List)
			r.Get("/{id}", cfg.StatusHandler.Get)
			r.Delete("/{id}", cfg.StatusHandler.Delete)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", cfg.GoalHandler.Create)
			r.Get("/", cfg.GoalHandler.List)
			r.Get("/{id}", cfg.GoalHandler.Get)
			r.Put("/{id}", cfg.GoalHandler.Update)
			r.Delete("/{id}", cfg.GoalHandler.Delete)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", cfg.TaskHandler.Create)
			r.Get("/", cfg.TaskHandler.List)
			r.Get("/{id}", cfg.TaskHandler.Get)
			r.Put("/{id}", cfg.TaskHandler.Update)
			r.Delete("/{id}", cfg.TaskHandler.Delete)
			r.Get("/member/{id}/assigned", cfg.TaskHandler.ListAssigned)
			r.Get("/member/{id}/progress", cfg.TaskHandler.MemberProgress)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/search", cfg.InsightsHandler.Search)
			r.Post("/summary", cfg.InsightsHandler.Summary)
			r.Post("/resync", cfg.InsightsHandler.Resync)
			r.Get("/health-check", cfg.InsightsHandler.HealthCheck)
		})
	})

	return r
}
