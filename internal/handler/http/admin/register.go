package admin

import "net/http"

// Register mounts the admin batch endpoints on mux.
func Register(mux *http.ServeMux, h Handler) {
	mux.HandleFunc("POST /admin/summary/run", h.ServeSummaryRun)
	mux.HandleFunc("GET /admin/summary/health", h.ServeSummaryHealth)
	mux.HandleFunc("POST /admin/reindex/run", h.ServeReindexRun)
}
