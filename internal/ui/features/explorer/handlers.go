package explorer

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// Handlers provides HTTP handlers for the explorer feature.
type Handlers struct {
	kb    *kb.Store
	views *views.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(kbStore *kb.Store, v *views.Renderer) *Handlers {
	return &Handlers{kb: kbStore, views: v}
}

// Page renders the explorer, optionally pre-filled from ?q=.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := PageData{
		Page:    views.Page{Title: "Explorer", Active: "explorer"},
		Query:   query,
		Results: h.search(query),
	}
	if err := h.views.Page(w, "explorer", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SearchSSE patches the results panel in place as the user types.
func (h *Handlers) SearchSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals before creating the SSE stream; it consumes the body.
	var signals SearchSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}

	sse := datastar.NewSSE(w, r)

	html, err := h.views.Fragment("explorer_results", h.search(strings.TrimSpace(signals.Q)))
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// search runs the query against all three KB collections.
func (h *Handlers) search(query string) Results {
	results := Results{Query: query}
	if query == "" {
		return results
	}

	base := h.kb.KB()
	results.Symptoms = base.SearchSymptoms(kb.SymptomQuery{Text: query})
	results.Diseases = base.SearchDiseases(kb.DiseaseQuery{Text: query})
	results.Rules = base.SearchRules(kb.RuleQuery{Text: query})
	return results
}
