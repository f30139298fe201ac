package diagnosis

import (
	"github.com/go-chi/chi/v5"

	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// SetupRoutes registers the diagnosis feature routes.
func SetupRoutes(
	router chi.Router,
	kbStore *kb.Store,
	eng *engine.Engine,
	store state.Store,
	v *views.Renderer,
) error {
	handlers := NewHandlers(kbStore, eng, store, v)

	router.Get("/", handlers.FormPage)
	router.Post("/diagnose", handlers.Diagnose)

	return nil
}
