// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/aquastack-labs/fishdoc/internal/engine"
	"github.com/aquastack-labs/fishdoc/internal/kb"
	"github.com/aquastack-labs/fishdoc/internal/state"
	"github.com/aquastack-labs/fishdoc/internal/testutil"
	"github.com/aquastack-labs/fishdoc/internal/ui/notifier"
	"github.com/aquastack-labs/fishdoc/internal/ui/views"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	KB           *kb.Store
	Engine       *engine.Engine
	Store        state.Store
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Views        *views.Renderer
}

// SetupTestFixture creates a complete fixture: the sample knowledge base
// written to a temp dir, an engine, and an in-memory history store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)

	kbStore, err := kb.Open(testutil.SampleKBDir(t))
	require.NoError(t, err)

	eng := engine.New(engine.Config{Logger: logger})

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() {
		_ = store.Close()
	})

	v, err := views.New()
	require.NoError(t, err)

	return &TestFixture{
		KB:           kbStore,
		Engine:       eng,
		Store:        store,
		Notifier:     notifier.New(),
		SessionStore: sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")),
		Views:        v,
	}
}

// SaveConsultation stores a canned consultation and returns it with its
// generated ID filled in.
func (f *TestFixture) SaveConsultation(t *testing.T, c *state.Consultation) *state.Consultation {
	t.Helper()
	require.NoError(t, f.Store.SaveConsultation(c))
	return c
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
