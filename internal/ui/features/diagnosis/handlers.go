package diagnosis

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// Handlers provides HTTP handlers for the diagnosis feature.
type Handlers struct {
	kb     *kb.Store
	engine *engine.Engine
	store  state.Store
	views  *views.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(kbStore *kb.Store, eng *engine.Engine, store state.Store, v *views.Renderer) *Handlers {
	return &Handlers{kb: kbStore, engine: eng, store: store, views: v}
}

// FormPage renders the consultation form, optionally scoped to a species.
func (h *Handlers) FormPage(w http.ResponseWriter, r *http.Request) {
	base := h.kb.KB()
	selected := r.URL.Query().Get("species")

	data := PageData{
		Page:     views.Page{Title: "Diagnosis", Active: "diagnosis"},
		Species:  base.Species(),
		Selected: selected,
		Symptoms: symptomsFor(base, selected),
	}

	if err := h.views.Page(w, "diagnosis", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Diagnose runs the inference pipeline from the posted form, saves the
// consultation, and renders the result.
func (h *Handlers) Diagnose(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	symptomIDs := r.Form["symptom"]
	if len(symptomIDs) == 0 {
		http.Error(w, "select at least one symptom", http.StatusBadRequest)
		return
	}

	cf := 1.0
	if v := r.FormValue("cf"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			http.Error(w, "certainty must be a number between 0 and 1", http.StatusBadRequest)
			return
		}
		cf = parsed
	}

	observed := make(map[string]float64, len(symptomIDs))
	for _, id := range symptomIDs {
		observed[id] = cf
	}

	base := h.kb.KB()
	diag := h.engine.Diagnose(base, observed)

	c := buildConsultation(base, diag, observed, r)
	if err := h.store.SaveConsultation(c); err != nil {
		http.Error(w, "failed to save consultation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := ResultData{
		Page:           views.Page{Title: "Result", Active: "diagnosis"},
		Diag:           diag,
		Symptoms:       c.Symptoms,
		Why:            whyByRule(base, diag.UsedRules),
		ConsultationID: c.ID,
	}
	if !diag.Conclusive() {
		data.Candidates = engine.RankedDiseases(base, diag.Facts)
	}

	if err := h.views.Page(w, "result", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// symptomsFor lists the symptom checklist for a species, sorted by ID.
func symptomsFor(base *kb.KnowledgeBase, species string) []kb.Symptom {
	var out []kb.Symptom
	for _, s := range base.Symptoms {
		if species == "" || s.AppliesTo(species) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// whyByRule builds per-rule WHY explanations for the trace view.
func whyByRule(base *kb.KnowledgeBase, usedRules []string) map[string]string {
	x := engine.NewExplainer(base)
	out := make(map[string]string, len(usedRules))
	for _, rid := range usedRules {
		if _, done := out[rid]; done {
			continue
		}
		out[rid] = x.WhyRule(rid)
	}
	return out
}

func buildConsultation(base *kb.KnowledgeBase, diag *engine.Diagnosis, observed map[string]float64, r *http.Request) *state.Consultation {
	c := &state.Consultation{
		PatientName: r.FormValue("patient"),
		Species:     r.FormValue("species"),
		Notes:       r.FormValue("notes"),
		Method:      diag.Method,
		UsedRules:   diag.UsedRules,
	}

	ids := make([]string, 0, len(observed))
	for id := range observed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.Symptoms = append(c.Symptoms, state.ReportedSymptom{
			SymptomID: id,
			Name:      base.SymptomName(id),
			CF:        observed[id],
		})
	}

	if diag.Conclusive() {
		c.DiseaseID = diag.Conclusion
		c.DiseaseName = diag.ConclusionName
		c.CF = diag.CF
		c.Recommendation = diag.Recommendation
	}

	for _, step := range diag.Trace {
		c.Trace = append(c.Trace, state.TraceStep{
			Step:      step.Step,
			RuleID:    step.Rule,
			Derived:   step.Derived,
			CFBefore:  step.CFBefore,
			DeltaCF:   step.DeltaCF,
			CFAfter:   step.CFAfter,
			MatchedIf: step.MatchedIfString(),
		})
	}
	return c
}
