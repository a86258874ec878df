package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// VersusPath is the default mount point for WebSocket joins
const VersusPath = "/versus"

// NewRouter serves health and metrics for reg. A non-nil versus handler is
// mounted at versusPath (VersusPath when empty) outside the request timeout,
// since upgraded connections outlive the request
func NewRouter(reg *Registry, versusPath string, versus http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, reg.Snapshot())
		})
	})

	if versus != nil {
		if versusPath == "" {
			versusPath = VersusPath
		}
		r.Handle(versusPath, versus)
	}
	return r
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
