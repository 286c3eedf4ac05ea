package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/parq/internal/ui/features/common"
)

// SetupRoutes registers the history feature routes.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/history", handlers.Page)
	router.Post("/api/history/clear", handlers.ClearSSE)

	return nil
}
