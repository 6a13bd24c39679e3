package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeLabel returns the matched chi pattern (e.g. /tasks/{id}) so per-id
// paths collapse into one label. Call it after the handler has run.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
