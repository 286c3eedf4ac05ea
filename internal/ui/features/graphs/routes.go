package graphs

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/parq/internal/ui/features/common"
)

// SetupRoutes registers the graphs feature routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/graphs", handlers.Page)

	router.Route("/api/graphs", func(r chi.Router) {
		r.Post("/refresh", handlers.RefreshSSE)
		r.Post("/select", handlers.SelectSSE)
		r.Get("/events", handlers.EventsSSE)
	})

	return nil
}
