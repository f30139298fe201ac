// Package explorer provides the knowledge base search view of the UI.
package explorer

import (
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// Results holds one search's hits across all three KB collections.
type Results struct {
	Query    string
	Symptoms []kb.Symptom
	Diseases []kb.Disease
	Rules    []kb.RuleMatch
}

// PageData holds the explorer page view.
type PageData struct {
	views.Page
	Query   string
	Results Results
}

// SearchSignals is the datastar signal payload for live search.
type SearchSignals struct {
	Q string `json:"q"`
}
