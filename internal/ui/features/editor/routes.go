package editor

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/view"
)

// SetupRoutes registers the editor feature routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	// Page routes
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/query", http.StatusFound)
	})
	router.Get("/query", handlers.Page(view.ModeQuery))
	router.Get("/update", handlers.Page(view.ModeUpdate))

	// API routes
	router.Route("/api/{mode}", func(r chi.Router) {
		r.Post("/submit", handlers.SubmitSSE)
		r.Post("/reset", handlers.ResetSSE)
		r.Get("/events", handlers.EventsSSE)
	})

	return nil
}
