// Package router sets up HTTP routes for the UI server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	diagnosisFeature "github.com/aquastack-labs/fishdoc/internal/ui/features/diagnosis"
	explorerFeature "github.com/aquastack-labs/fishdoc/internal/ui/features/explorer"
	historyFeature "github.com/aquastack-labs/fishdoc/internal/ui/features/history"
	knowledgeFeature "github.com/aquastack-labs/fishdoc/internal/ui/features/knowledge"
	"github.com/aquastack-labs/fishdoc/internal/ui/notifier"
	"github.com/aquastack-labs/fishdoc/internal/ui/resources"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	kbStore *kb.Store,
	eng *engine.Engine,
	store state.Store,
	sessionStore *sessions.CookieStore,
	notify *notifier.Notifier,
) error {
	v, err := views.New()
	if err != nil {
		return err
	}

	// Pages reload when the knowledge base changes on disk.
	setupUpdates(router, notify)

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := diagnosisFeature.SetupRoutes(router, kbStore, eng, store, v); err != nil {
		return err
	}

	if err := knowledgeFeature.SetupRoutes(router, kbStore, sessionStore, notify, v); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, kbStore, store, v); err != nil {
		return err
	}

	if err := explorerFeature.SetupRoutes(router, kbStore, v); err != nil {
		return err
	}

	return nil
}

// setupUpdates registers the long-lived SSE endpoint every page subscribes
// to. A notifier ping reloads the page so it reflects the current KB.
func setupUpdates(router chi.Router, notify *notifier.Notifier) {
	router.Get("/updates", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)

		updates := notify.Subscribe()
		defer notify.Unsubscribe(updates)

		for {
			select {
			case <-r.Context().Done():
				return
			case <-updates:
				if err := sse.ExecuteScript("window.location.reload()"); err != nil {
					return
				}
			}
		}
	})
}
