// Package recommend exposes the C8/C9 recommendation engine over HTTP:
// GET /recommend (read-through) and GET /recommend-cached (cache-only).
package recommend

import (
	"errors"
	"net/http"
	"strconv"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/handler/http/respond"
	"catchup-feed/internal/usecase/cache"
	"catchup-feed/internal/usecase/recommend"
)

// Handler serves /recommend and /recommend-cached.
type Handler struct {
	Cache *cache.Service
}

// ServeRecommend implements GET /recommend?clicked_link&hours_window&top_k&nli_threshold&allow_stale.
func (h Handler) ServeRecommend(w http.ResponseWriter, r *http.Request) {
	clicked, p, allowStale, err := parseParams(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Cache.Get(r.Context(), clicked, p, allowStale)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// ServeRecommendCached implements GET /recommend-cached?…, a cache-only
// read returning 204 when no entry exists for the key.
func (h Handler) ServeRecommendCached(w http.ResponseWriter, r *http.Request) {
	clicked, p, _, err := parseParams(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, ok := h.Cache.GetCacheOnly(r.Context(), clicked, p)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func parseParams(r *http.Request) (string, recommend.Params, bool, error) {
	q := r.URL.Query()
	clicked := q.Get("clicked_link")
	if clicked == "" {
		return "", recommend.Params{}, false, entity.NewError("recommend.parseParams", entity.KindInvalidInput, errors.New("clicked_link is required"))
	}

	p := recommend.DefaultParams()
	if v := q.Get("hours_window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", recommend.Params{}, false, entity.NewError("recommend.parseParams", entity.KindInvalidInput, errors.New("hours_window must be an integer"))
		}
		p.HoursWindow = n
	}
	if v := q.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", recommend.Params{}, false, entity.NewError("recommend.parseParams", entity.KindInvalidInput, errors.New("top_k must be an integer"))
		}
		p.TopK = n
	}
	if v := q.Get("nli_threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", recommend.Params{}, false, entity.NewError("recommend.parseParams", entity.KindInvalidInput, errors.New("nli_threshold must be a number"))
		}
		p.StanceThreshold = f
	}

	allowStale := false
	if v := q.Get("allow_stale"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", recommend.Params{}, false, entity.NewError("recommend.parseParams", entity.KindInvalidInput, errors.New("allow_stale must be a boolean"))
		}
		allowStale = b
	}

	return clicked, p, allowStale, nil
}

func statusFor(err error) int {
	kind, ok := entity.KindOf(err)
	if !ok {
		if errors.Is(err, entity.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	}
	switch kind {
	case entity.KindInvalidInput:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindUpstreamUnavailable:
		return http.StatusBadGateway
	case entity.KindCorrupted:
		return http.StatusInternalServerError
	case entity.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
