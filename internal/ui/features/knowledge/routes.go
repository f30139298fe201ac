package knowledge

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/notifier"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// SetupRoutes registers the knowledge acquisition routes.
func SetupRoutes(
	router chi.Router,
	kbStore *kb.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	v *views.Renderer,
) error {
	handlers := NewHandlers(kbStore, sessionStore, notify, v)

	router.Get("/knowledge", handlers.RulesPage)
	router.Post("/knowledge/rules", handlers.AddRule)
	router.Post("/knowledge/rules/{id}", handlers.EditRule)
	router.Post("/knowledge/rules/{id}/delete", handlers.DeleteRule)

	return nil
}
