package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and mounts all endpoints.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", h.ListCountries)

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", h.CreateCampaign)
			r.Get("/", h.ListCampaigns)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Post("/blueprint", h.RegenerateBlueprint)
				r.Post("/template", h.GenerateTemplate)
				r.Post("/newsletter", h.BuildNewsletter)
				r.Post("/test-send", h.TestSend)
				r.Post("/launch", h.Launch)
				r.Get("/runs", h.ListRuns)
			})
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Post("/upload", h.UploadContacts)
			r.Post("/import-s3", h.ImportContactsFromS3)
		})

		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", h.GetRun)
			r.Get("/progress", h.GetRunProgress)
			r.Get("/analytics", h.GetRunAnalytics)
			r.Get("/export", h.ExportRun)
		})
	})

	return r
}
