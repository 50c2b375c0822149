// Package observe instruments the HTTP surface with OpenTelemetry. Spans
// are emitted through the global tracer provider, so they are no-ops until
// a deployment configures one.
package observe

import (
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Multiplexer is the subset of http.ServeMux that Mux decorates.
type Multiplexer interface {
	Handle(pattern string, handler http.Handler)
	http.Handler
}

// Mux wraps every registered handler with otelhttp, tagging each span with
// its route.
type Mux struct {
	inner Multiplexer
}

func NewMux(inner Multiplexer) *Mux {
	return &Mux{inner: inner}
}

func (m *Mux) Handle(pattern string, handler http.Handler) {
	m.inner.Handle(pattern, otelhttp.NewHandler(handler, routeTag(pattern)))
}

func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.inner.ServeHTTP(w, r)
}

var methods = []string{
	http.MethodConnect,
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodOptions,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodTrace,
}

// routeTag strips the optional method prefix from a mux pattern so the span
// name is the bare route.
func routeTag(pattern string) string {
	method, route, hasMethod := strings.Cut(pattern, " ")
	if hasMethod && slices.Contains(methods, method) {
		return route
	}
	return pattern
}
