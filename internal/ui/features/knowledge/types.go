// Package knowledge provides the rule acquisition view of the UI.
package knowledge

import (
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// RuleRow pairs a rule with its ID for the rule table.
type RuleRow struct {
	ID   string
	Rule kb.Rule
}

// PageData holds the knowledge acquisition view.
type PageData struct {
	views.Page
	Rules  []RuleRow
	NextID string
}
