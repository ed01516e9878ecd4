// Package swaggerkit serves the OpenAPI document and Swagger UI under /api/docs
package swaggerkit

import (
	"encoding/json"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	phttp "stackscout/internal/platform/net/http"
	"stackscout/internal/services/api/docs"
)

// ProtectedPaths need a bearer token when ANALYSIS_ADMIN_TOKEN is set
var ProtectedPaths = []string{"/analysis/sweeps"}

var readDoc = func() string { return docs.SwaggerInfo.ReadDoc() }

// Mount serves the UI and the decorated document when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDoc)
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func serveDoc(w http.ResponseWriter, _ *http.Request) {
	var spec map[string]any
	if err := json.Unmarshal([]byte(readDoc()), &spec); err != nil {
		http.Error(w, "spec parse error", http.StatusInternalServerError)
		return
	}
	Decorate(spec, ProtectedPaths...)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(spec)
}
