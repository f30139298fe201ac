package explorer

import (
	"github.com/go-chi/chi/v5"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// SetupRoutes registers the explorer feature routes.
func SetupRoutes(router chi.Router, kbStore *kb.Store, v *views.Renderer) error {
	handlers := NewHandlers(kbStore, v)

	router.Get("/explorer", handlers.Page)
	router.Post("/explorer/search", handlers.SearchSSE)

	return nil
}
