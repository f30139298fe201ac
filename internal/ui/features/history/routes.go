package history

import (
	"github.com/go-chi/chi/v5"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// SetupRoutes registers the history feature routes.
func SetupRoutes(
	router chi.Router,
	kbStore *kb.Store,
	store state.Store,
	v *views.Renderer,
) error {
	handlers := NewHandlers(kbStore, store, v)

	router.Get("/history", handlers.ListPage)
	router.Get("/history/export.csv", handlers.ExportCSV)
	router.Get("/history/{id}", handlers.DetailPage)
	router.Get("/history/{id}/report", handlers.Report)
	router.Post("/history/{id}/delete", handlers.Delete)

	return nil
}
