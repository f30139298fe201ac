// Package diagnosis provides the consultation view of the UI.
package diagnosis

import (
	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// PageData holds the consultation form view.
type PageData struct {
	views.Page
	Species  []string
	Selected string
	Symptoms []kb.Symptom
}

// ResultData holds the diagnosis result view.
type ResultData struct {
	views.Page
	Diag           *engine.Diagnosis
	Candidates     []engine.RankedDisease
	Symptoms       []state.ReportedSymptom
	Why            map[string]string
	ConsultationID string
}
