package explorer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/ui/features"
)

func setupTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.KB, fixture.Views)
}

func TestPage_NoQuery(t *testing.T) {
	handlers := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/explorer", nil)
	rec := httptest.NewRecorder()
	handlers.Page(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Type to search the knowledge base.")
}

func TestPage_WithQuery(t *testing.T) {
	handlers := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/explorer?q=white", nil)
	rec := httptest.NewRecorder()
	handlers.Page(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<mark>White</mark> spots on skin")
	assert.NotContains(t, body, "Type to search")
}

func TestSearchSSE(t *testing.T) {
	handlers := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/explorer/search",
		strings.NewReader(`{"q":"ich"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlers.SearchSSE(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	body := rec.Body.String()
	assert.Contains(t, body, "explorer-results")
	assert.Contains(t, body, "white spot disease)")
	assert.Contains(t, body, "<mark>")
}

func TestSearchMatchesRulesByFact(t *testing.T) {
	handlers := setupTestHandlers(t)

	results := handlers.search("d_fin_rot")
	require.NotEmpty(t, results.Rules)

	var ids []string
	for _, m := range results.Rules {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, "R2")
}
