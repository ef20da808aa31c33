package structures

import "net/http"

// Route is one mounted path. Methods lists what Handler accepts, in
// registration order.
type Route struct {
	Url     string
	Methods []string
	Handler http.Handler
}
