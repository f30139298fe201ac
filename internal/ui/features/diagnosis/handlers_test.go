package diagnosis

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/ui/features"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	handlers := NewHandlers(fixture.KB, fixture.Engine, fixture.Store, fixture.Views)
	return handlers, fixture
}

func TestFormPage(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handlers.FormPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Diagnosis - FishDoc</title>")
	assert.Contains(t, body, "White spots on skin")
	assert.Contains(t, body, "Do you see small white spots")
	assert.Contains(t, body, `name="symptom" value="s_white_spots"`)
}

func TestFormPage_SpeciesFilter(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/?species=goldfish", nil)
	rec := httptest.NewRecorder()
	handlers.FormPage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	// Frayed fins only applies to betta and guppy.
	assert.Contains(t, body, "White spots on skin")
	assert.NotContains(t, body, "Frayed or ragged fins")
}

func TestDiagnose_SavesConsultation(t *testing.T) {
	handlers, fixture := setupTestHandlers(t)

	form := url.Values{
		"symptom": {"s_white_spots", "s_scratching", "s_frayed_fins"},
		"cf":      {"1.0"},
		"species": {"guppy"},
		"patient": {"Bubbles"},
	}
	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlers.Diagnose(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Fin rot")
	assert.Contains(t, body, "Reasoning trace")
	assert.Contains(t, body, "Reported symptoms")

	saved, err := fixture.Store.SearchConsultations(state.Filter{})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Bubbles", saved[0].PatientName)
	assert.Equal(t, "guppy", saved[0].Species)
	assert.Len(t, saved[0].Symptoms, 3)
	assert.NotEmpty(t, saved[0].Trace)
}

func TestDiagnose_NoSymptoms(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlers.Diagnose(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnose_InvalidCF(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	form := url.Values{
		"symptom": {"s_white_spots"},
		"cf":      {"1.5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlers.Diagnose(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnose_Inconclusive(t *testing.T) {
	handlers, _ := setupTestHandlers(t)

	// Appetite loss alone derives only the intermediate stress fact.
	form := url.Values{
		"symptom": {"s_loss_appetite"},
		"cf":      {"1.0"},
	}
	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlers.Diagnose(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No conclusive diagnosis")
}
