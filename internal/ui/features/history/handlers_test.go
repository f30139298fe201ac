package history

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/features"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	handlers := NewHandlers(fixture.KB, fixture.Store, fixture.Views)
	return handlers, fixture
}

func sampleConsultation() *state.Consultation {
	return &state.Consultation{
		CreatedAt:   time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		PatientName: "Bubbles",
		Species:     "guppy",
		Symptoms: []state.ReportedSymptom{
			{SymptomID: "s_frayed_fins", Name: "Frayed or ragged fins", CF: 1.0},
		},
		DiseaseID:      "d_fin_rot",
		DiseaseName:    "Fin rot",
		CF:             0.74,
		Recommendation: "Partial water changes",
		UsedRules:      []string{"R2"},
		Trace: []state.TraceStep{
			{Step: 1, RuleID: "R2", Derived: "d_fin_rot", CFBefore: 0, DeltaCF: 0.74, CFAfter: 0.74, MatchedIf: "s_frayed_fins"},
		},
	}
}

func TestListPage(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	handlers.ListPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, c.ID[:8])
	assert.Contains(t, body, "Fin rot")
	assert.Contains(t, body, "guppy")
	assert.Contains(t, body, "1 consultations, 1 conclusive")
}

func TestListPage_RuleUsage(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	handlers.ListPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Most used rules")
	// Usage rows carry the concluded disease's name, not just the rule ID.
	assert.Contains(t, body, "<td>R2</td><td>Fin rot</td><td>1</td>")
}

func TestListPage_Empty(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	handlers.ListPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No consultations yet.")
}

func TestListPage_SpeciesFilter(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history?species=goldfish", nil)
	rec := httptest.NewRecorder()
	handlers.ListPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No consultations yet.")
}

func TestDetailPage(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history/"+c.ID, nil)
	req = features.RequestWithPathParam(req, "id", c.ID)
	rec := httptest.NewRecorder()
	handlers.DetailPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Fin rot")
	assert.Contains(t, body, "Bubbles")
	assert.Contains(t, body, "Reasoning trace")
	assert.Contains(t, body, "s_frayed_fins")
}

func TestDetailPage_NotFound(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/history/nope", nil)
	req = features.RequestWithPathParam(req, "id", "nope")
	rec := httptest.NewRecorder()
	handlers.DetailPage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReport_Text(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history/"+c.ID+"/report?format=txt", nil)
	req = features.RequestWithPathParam(req, "id", c.ID)
	rec := httptest.NewRecorder()
	handlers.Report(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".txt")
	assert.Contains(t, rec.Body.String(), "CONSULTATION REPORT")
	assert.Contains(t, rec.Body.String(), "FIN ROT")
}

func TestReport_UnsupportedFormat(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history/"+c.ID+"/report?format=pdf", nil)
	req = features.RequestWithPathParam(req, "id", c.ID)
	rec := httptest.NewRecorder()
	handlers.Report(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCSV(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodGet, "/history/export.csv", nil)
	rec := httptest.NewRecorder()
	handlers.ExportCSV(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), c.ID)
	assert.Contains(t, rec.Body.String(), "Fin rot")
}

func TestDelete(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)
	c := fixture.SaveConsultation(t, sampleConsultation())

	req := httptest.NewRequest(http.MethodPost, "/history/"+c.ID+"/delete", nil)
	req = features.RequestWithPathParam(req, "id", c.ID)
	rec := httptest.NewRecorder()
	handlers.Delete(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)

	_, err := fixture.Store.GetConsultation(c.ID)
	assert.Error(t, err)
}
