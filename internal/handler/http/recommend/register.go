package recommend

import "net/http"

// Register mounts GET /recommend and GET /recommend-cached on mux.
func Register(mux *http.ServeMux, h Handler) {
	mux.HandleFunc("GET /recommend", h.ServeRecommend)
	mux.HandleFunc("GET /recommend-cached", h.ServeRecommendCached)
}
