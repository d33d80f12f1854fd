package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Post("/", h.CreateBook)
			r.Get("/", h.SearchBooks)
			r.Get("/{id}", h.GetBook)
			r.Put("/{id}", h.UpdateBook)
			r.Delete("/{id}", h.DeleteBook)
			r.Get("/{id}/loans", h.BookLoans)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", h.CreateLoan)
			r.Get("/", h.SearchLoans)
			r.Get("/{id}", h.GetLoan)
			r.Patch("/{id}", h.ReturnLoan)
		})
	})

	return r
}
