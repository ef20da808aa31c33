package providers

import (
	"net/http"
	"strings"

	"musicwordle/internal/structures"
)

type RouterProviderInterface interface {
	Get(url string, handler http.Handler)
	Post(url string, handler http.Handler)
	GetRoutes() []structures.Route
	Endpoints() []string
}

// RouterProvider collects API handlers keyed by path so a path can serve more
// than one method while being mounted on the mux once.
type RouterProvider struct {
	order []string
	paths map[string]*methodRouter
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{paths: make(map[string]*methodRouter)}
}

func (rp *RouterProvider) Get(url string, handler http.Handler) {
	rp.add(url, http.MethodGet, handler)
}

func (rp *RouterProvider) Post(url string, handler http.Handler) {
	rp.add(url, http.MethodPost, handler)
}

func (rp *RouterProvider) add(url, method string, handler http.Handler) {
	mr, ok := rp.paths[url]
	if !ok {
		mr = &methodRouter{handlers: make(map[string]http.Handler)}
		rp.paths[url] = mr
		rp.order = append(rp.order, url)
	}
	if _, dup := mr.handlers[method]; !dup {
		mr.methods = append(mr.methods, method)
	}
	mr.handlers[method] = handler
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	routes := make([]structures.Route, 0, len(rp.order))
	for _, url := range rp.order {
		mr := rp.paths[url]
		routes = append(routes, structures.Route{
			Url:     url,
			Methods: append([]string(nil), mr.methods...),
			Handler: mr,
		})
	}
	return routes
}

// Endpoints returns the registered paths, used to bound metric labels.
func (rp *RouterProvider) Endpoints() []string {
	return append([]string(nil), rp.order...)
}

type methodRouter struct {
	methods  []string
	handlers map[string]http.Handler
}

func (mr *methodRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.Method
	if method == http.MethodHead {
		if _, ok := mr.handlers[http.MethodHead]; !ok {
			method = http.MethodGet
		}
	}
	h, ok := mr.handlers[method]
	if !ok {
		w.Header().Set("Allow", mr.allow())
		writeMethodNotAllowed(w)
		return
	}
	h.ServeHTTP(w, r)
}

func (mr *methodRouter) allow() string {
	allowed := append([]string(nil), mr.methods...)
	if _, ok := mr.handlers[http.MethodGet]; ok {
		if _, ok := mr.handlers[http.MethodHead]; !ok {
			allowed = append(allowed, http.MethodHead)
		}
	}
	return strings.Join(allowed, ", ")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_, _ = w.Write([]byte(`{"error":"method not allowed","code":"METHOD_NOT_ALLOWED"}`))
}
