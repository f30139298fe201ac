package history

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/report"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

const defaultListLimit = 50

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	kb    *kb.Store
	store state.Store
	views *views.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(kbStore *kb.Store, store state.Store, v *views.Renderer) *Handlers {
	return &Handlers{kb: kbStore, store: store, views: v}
}

// ListPage renders the filterable consultation list with statistics.
func (h *Handlers) ListPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := state.Filter{
		Query:     q.Get("q"),
		DiseaseID: q.Get("disease"),
		Species:   q.Get("species"),
		Limit:     defaultListLimit,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	consultations, err := h.store.SearchConsultations(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := ListData{
		Page:          views.Page{Title: "History", Active: "history"},
		Consultations: consultations,
		Query:         filter.Query,
		SpeciesFilter: filter.Species,
	}

	// Stats are best-effort; an empty history renders without them.
	if stats, err := h.store.Statistics(); err == nil && stats.TotalConsultations > 0 {
		data.Stats = stats
	}
	if usage, err := h.store.RuleUsage(); err == nil {
		if len(usage) > 10 {
			usage = usage[:10]
		}
		base := h.kb.KB()
		for _, u := range usage {
			row := RuleUsageRow{RuleUsage: u}
			if rule, ok := base.Rules[u.RuleID]; ok {
				row.Concludes = base.DiseaseName(rule.Then)
			}
			data.RuleUsage = append(data.RuleUsage, row)
		}
	}

	if err := h.views.Page(w, "history", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DetailPage renders one consultation with its trace.
func (h *Handlers) DetailPage(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetConsultation(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data := DetailData{
		Page: views.Page{Title: "Consultation " + shortID(c.ID), Active: "history"},
		C:    c,
	}
	if err := h.views.Page(w, "consultation", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Report streams a consultation report as a text or markdown download.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetConsultation(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	base := h.kb.KB()
	format := r.URL.Query().Get("format")

	var content, ext, contentType string
	switch format {
	case "md", "markdown":
		content, ext, contentType = report.Markdown(c, base), "md", "text/markdown; charset=utf-8"
	case "", "txt", "text":
		content, ext, contentType = report.Text(c, base), "txt", "text/plain; charset=utf-8"
	default:
		http.Error(w, "unsupported report format: "+format, http.StatusBadRequest)
		return
	}

	filename := fmt.Sprintf("consultation-%s.%s", shortID(c.ID), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write([]byte(content))
}

// ExportCSV streams the whole history as CSV.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	consultations, err := h.store.SearchConsultations(state.Filter{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="consultations.csv"`)
	if err := report.CSV(w, consultations); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Delete removes a consultation and returns to the list.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteConsultation(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}
