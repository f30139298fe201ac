package knowledge

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/ui/notifier"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

const sessionName = "fishdoc"

// Handlers provides HTTP handlers for the knowledge feature.
type Handlers struct {
	kb           *kb.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	views        *views.Renderer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(kbStore *kb.Store, sessionStore sessions.Store, notify *notifier.Notifier, v *views.Renderer) *Handlers {
	return &Handlers{kb: kbStore, sessionStore: sessionStore, notifier: notify, views: v}
}

// RulesPage renders the rule table and add form.
func (h *Handlers) RulesPage(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Page:   views.Page{Title: "Knowledge", Active: "knowledge"},
		NextID: h.kb.NextRuleID(),
	}
	for _, id := range h.kb.RuleIDs() {
		if rule, ok := h.kb.GetRule(id); ok {
			data.Rules = append(data.Rules, RuleRow{ID: id, Rule: rule})
		}
	}

	// One-shot flash from the previous mutation, if any.
	if session, err := h.sessionStore.Get(r, sessionName); err == nil {
		if flashes := session.Flashes(); len(flashes) > 0 {
			if msg, ok := flashes[0].(string); ok {
				data.Flash = msg
			}
			_ = session.Save(r, w)
		}
	}
	if msg := r.URL.Query().Get("error"); msg != "" {
		data.Error = msg
	}

	if err := h.views.Page(w, "knowledge", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AddRule validates and persists a new rule.
func (h *Handlers) AddRule(w http.ResponseWriter, r *http.Request) {
	rule, id, err := ruleFromForm(r)
	if err != nil {
		h.redirectError(w, r, err)
		return
	}
	if id == "" {
		id = h.kb.NextRuleID()
	}
	if err := h.kb.AddRule(id, rule); err != nil {
		h.redirectError(w, r, err)
		return
	}
	h.finishMutation(w, r, fmt.Sprintf("Rule %s added.", id))
}

// EditRule updates an existing rule.
func (h *Handlers) EditRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, _, err := ruleFromForm(r)
	if err != nil {
		h.redirectError(w, r, err)
		return
	}
	if err := h.kb.EditRule(id, rule); err != nil {
		h.redirectError(w, r, err)
		return
	}
	h.finishMutation(w, r, fmt.Sprintf("Rule %s updated.", id))
}

// DeleteRule removes a rule.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.kb.DeleteRule(id); err != nil {
		h.redirectError(w, r, err)
		return
	}
	h.finishMutation(w, r, fmt.Sprintf("Rule %s deleted.", id))
}

// finishMutation records a flash, notifies SSE clients, and redirects back.
func (h *Handlers) finishMutation(w http.ResponseWriter, r *http.Request, msg string) {
	if session, err := h.sessionStore.Get(r, sessionName); err == nil {
		session.AddFlash(msg)
		_ = session.Save(r, w)
	}
	h.notifier.Broadcast()
	http.Redirect(w, r, "/knowledge", http.StatusSeeOther)
}

func (h *Handlers) redirectError(w http.ResponseWriter, r *http.Request, err error) {
	q := url.Values{"error": {err.Error()}}
	http.Redirect(w, r, "/knowledge?"+q.Encode(), http.StatusSeeOther)
}

// ruleFromForm parses a rule from form fields, validating the CF range.
func ruleFromForm(r *http.Request) (kb.Rule, string, error) {
	if err := r.ParseForm(); err != nil {
		return kb.Rule{}, "", fmt.Errorf("invalid form")
	}

	var antecedents []string
	for _, part := range strings.Split(r.FormValue("if"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			antecedents = append(antecedents, part)
		}
	}

	cf := 1.0
	if v := r.FormValue("cf"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return kb.Rule{}, "", fmt.Errorf("CF must be a number between 0 and 1")
		}
		cf = parsed
	}

	rule := kb.Rule{
		If:             antecedents,
		Then:           strings.TrimSpace(r.FormValue("then")),
		CF:             cf,
		AskWhy:         strings.TrimSpace(r.FormValue("ask_why")),
		Recommendation: strings.TrimSpace(r.FormValue("recommendation")),
		Source:         strings.TrimSpace(r.FormValue("source")),
	}
	return rule, strings.TrimSpace(r.FormValue("id")), nil
}
