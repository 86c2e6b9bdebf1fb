package theme

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, tenant string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func setupHandlerTest(t *testing.T, store Store) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	NewHandler(store).RegisterRoutes(router, "/devportal")
	return router
}

func TestHandler_ServesTheme(t *testing.T) {
	store := setupFileStoreTest(t)
	require.NoError(t, store.Put(context.Background(), "acme.com", []byte(`{"themes":{"light":{}}}`)))
	router := setupHandlerTest(t, store)

	req := httptest.NewRequest(http.MethodGet, "/devportal/site/public/tenant_themes/acme.com/apim/defaultTheme.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"themes":{"light":{}}}`, rec.Body.String())
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  Store
		tenant string
		status int
	}{
		{name: "missing tenant", store: nil, tenant: "missing", status: http.StatusNotFound},
		{name: "invalid tenant", store: nil, tenant: "..hidden", status: http.StatusBadRequest},
		{name: "store failure", store: failingStore{}, tenant: "acme.com", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = setupFileStoreTest(t)
			}
			router := setupHandlerTest(t, store)

			req := httptest.NewRequest(http.MethodGet, "/devportal/site/public/tenant_themes/"+tt.tenant+"/apim/defaultTheme.json", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestHandler_FeedsHTTPFetcher(t *testing.T) {
	store := setupFileStoreTest(t)
	require.NoError(t, store.Put(context.Background(), "acme.com",
		[]byte(`{"themes":{"light":{"custom":{"title":{"prefix":"Acme","sufix":"!"}}}}}`)))

	server := httptest.NewServer(setupHandlerTest(t, store))
	defer server.Close()

	resolver := NewResolver(NewHTTPFetcher(server.URL+"/devportal", nil))
	assert.Equal(t, "Acme!", resolver.Resolve(context.Background(), "acme.com").Title())
	assert.Same(t, resolver.Default(), resolver.Resolve(context.Background(), "nobody"))
}
