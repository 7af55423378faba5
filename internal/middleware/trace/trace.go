// Package trace times requests and reports them to a metrics sink, labelled
// by the matched chi route rather than the raw path.
package trace

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Observer receives one call per finished request.
type Observer interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// UnmatchedRoute labels requests no route matched, keeping label
// cardinality bounded.
const UnmatchedRoute = "unmatched"

// Middleware reports every request to obs.
func Middleware(obs Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			obs.ObserveHTTP(r.Method, RoutePattern(r), status, time.Since(start))
		})
	}
}

// RoutePattern returns the chi pattern that handled r, e.g.
// "/api/transactions/{id}".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return UnmatchedRoute
}
