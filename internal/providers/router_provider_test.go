package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(name))
	})
}

func serve(t *testing.T, h http.Handler, method string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, "/api/x", nil))
	return rr
}

func TestRouterProvider_KeepsRegistrationOrder(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/api/new-game", named("new"))
	rp.Post("/api/guess", named("guess"))
	rp.Get("/api/game-status", named("status"))

	routes := rp.GetRoutes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/api/new-game", routes[0].Url)
	assert.Equal(t, []string{http.MethodGet}, routes[2].Methods)
	assert.Equal(t, []string{"/api/new-game", "/api/guess", "/api/game-status"}, rp.Endpoints())
}

func TestRouterProvider_SharesPathAcrossMethods(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/api/x", named("read"))
	rp.Post("/api/x", named("write"))

	routes := rp.GetRoutes()
	require.Len(t, routes, 1, "a path is mounted once")
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, routes[0].Methods)

	assert.Equal(t, "read", serve(t, routes[0].Handler, http.MethodGet).Body.String())
	assert.Equal(t, "write", serve(t, routes[0].Handler, http.MethodPost).Body.String())
}

func TestRouterProvider_ReRegisterReplacesHandler(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/api/x", named("old"))
	rp.Post("/api/x", named("new"))

	route := rp.GetRoutes()[0]
	assert.Equal(t, []string{http.MethodPost}, route.Methods)
	assert.Equal(t, "new", serve(t, route.Handler, http.MethodPost).Body.String())
}

func TestRouterProvider_WrongMethod(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/api/x", named("write"))

	rr := serve(t, rp.GetRoutes()[0].Handler, http.MethodGet)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"method not allowed","code":"METHOD_NOT_ALLOWED"}`, rr.Body.String())
}

func TestRouterProvider_HeadFollowsGet(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/api/x", named("read"))

	route := rp.GetRoutes()[0]
	assert.Equal(t, http.StatusOK, serve(t, route.Handler, http.MethodHead).Code)

	rr := serve(t, route.Handler, http.MethodDelete)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
}

func TestRouterProvider_HeadRejectedOnPostOnlyPath(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/api/x", named("write"))

	assert.Equal(t, http.StatusMethodNotAllowed, serve(t, rp.GetRoutes()[0].Handler, http.MethodHead).Code)
}
