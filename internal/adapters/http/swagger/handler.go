// Package swagger serves the OpenAPI document and a ReDoc viewer for it.
package swagger

import (
	"context"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultRedocScript is where the docs page loads ReDoc from unless
// WithRedocScript points it elsewhere.
const DefaultRedocScript = "https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"

type options struct {
	redocScript string
}

// Option configures Register.
type Option func(*options)

// WithRedocScript sets the ReDoc bundle URL, for example a copy served
// from inside a network without internet access.
func WithRedocScript(src string) Option {
	return func(o *options) {
		if src != "" {
			o.redocScript = src
		}
	}
}

// Register attaches the API docs and the OpenAPI spec routes to r.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> Embedded OpenAPI spec
func Register(_ context.Context, r chi.Router, opts ...Option) {
	if r == nil {
		panic("router is nil")
	}
	o := options{redocScript: DefaultRedocScript}
	for _, opt := range opts {
		opt(&o)
	}

	r.Get("/api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = indexTmpl.Execute(w, struct{ RedocScript string }{o.redocScript})
	})

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

// Minimal HTML that loads the ReDoc bundle and renders /openapi.yaml.
var indexTmpl = template.Must(template.New("redoc").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Guess That Rent API - ReDoc</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="{{.RedocScript}}"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`))
