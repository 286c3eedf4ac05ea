// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/parq/internal/ui/features/common"
	editorFeature "github.com/leapstack-labs/parq/internal/ui/features/editor"
	graphsFeature "github.com/leapstack-labs/parq/internal/ui/features/graphs"
	historyFeature "github.com/leapstack-labs/parq/internal/ui/features/history"
	"github.com/leapstack-labs/parq/internal/ui/resources"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps *common.Deps) error {
	// Static assets
	router.Handle("/static/*", resources.Handler(deps.StaticDir))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Feature routes
	if err := editorFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := graphsFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, deps); err != nil {
		return err
	}

	return nil
}
