// Package history provides the consultation history view of the UI.
package history

import (
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// ListData holds the history list view.
type ListData struct {
	views.Page
	Consultations []*state.Consultation
	Stats         *state.Statistics
	RuleUsage     []RuleUsageRow
	Query         string
	SpeciesFilter string
}

// RuleUsageRow joins a rule's firing stats with the display name of the
// disease it concludes. Concludes is empty when the rule no longer exists
// in the knowledge base.
type RuleUsageRow struct {
	state.RuleUsage
	Concludes string
}

// DetailData holds the consultation detail view.
type DetailData struct {
	views.Page
	C *state.Consultation
}
