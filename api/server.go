/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/rentals/*        Rental, bond and period management
  /api/periods/*        Period edits by ID
  /api/bonds/*          Bond deletion by ID
  /api/scenarios/*      Demo scenarios
  /api/policy           Effective rate policy

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Rental routes
		r.Route("/rentals", func(r chi.Router) {
			r.Get("/", h.ListRentals)
			r.Post("/", h.CreateRental)
			r.Get("/{id}", h.GetRental)
			r.Delete("/{id}", h.DeleteRental)

			r.Get("/{id}/bonds", h.ListBonds)
			r.Post("/{id}/bonds", h.CreateBond)

			r.Get("/{id}/periods", h.ListPeriods)
			r.Post("/{id}/periods", h.CreatePeriod)
			r.Put("/{id}/periods/{periodID}", h.UpdatePeriod)
			r.Delete("/{id}/periods/{periodID}", h.DeletePeriod)
			r.Post("/{id}/gap-periods", h.CreateGapPeriod)

			r.Post("/{id}/periods/preview", h.PreviewPeriods)
			r.Post("/{id}/periods/apply", h.ApplyPeriods)

			r.Get("/{id}/gaps", h.GetGaps)
			r.Get("/{id}/summary", h.GetSummary)
			r.Get("/{id}/scans", h.ListGapScans)
		})

		// Bond routes
		r.Route("/bonds", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteBond)
		})

		// Policy route
		r.Get("/policy", h.GetPolicy)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page with API index
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Rental Billing Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Rental Billing Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/rentals">/api/rentals</a> - List rentals</li>
<li><a href="/api/policy">/api/policy</a> - Effective rate policy</li>
<li><a href="/api/scenarios">/api/scenarios</a> - List demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
