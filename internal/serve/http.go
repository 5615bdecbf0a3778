package serve

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/sitemap"
)

// NewRouter serves sm. Every request gets its own tree scope, so one
// request never observes two different trees. /metrics is mounted when
// gatherer is non-nil.
func NewRouter(sm *sitemap.Provider, gatherer prometheus.Gatherer) http.Handler {
	h := &handlers{sm: sm}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(scoped)

	r.Get("/healthz", h.health)
	r.Get("/tree", h.tree)
	r.Get("/nodes/{key}", h.node)
	r.Get("/roles/{role}", h.role)
	r.Post("/invalidate", h.invalidate)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func scoped(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(sitemap.WithScope(r.Context())))
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		ctxlog.FromContext(r.Context()).Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}

type handlers struct {
	sm *sitemap.Provider
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sitemap": h.sm.Name(), "state": h.sm.State().String()})
}

func (h *handlers) tree(w http.ResponseWriter, r *http.Request) {
	t, err := h.sm.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Export(t.Root()))
}

func (h *handlers) node(w http.ResponseWriter, r *http.Request) {
	t, err := h.sm.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	n, err := t.FindByKey(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail(r.Context(), h.sm, n))
}

func (h *handlers) role(w http.ResponseWriter, r *http.Request) {
	t, err := h.sm.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inRole(r.Context(), h.sm, t, chi.URLParam(r, "role")))
}

func (h *handlers) invalidate(w http.ResponseWriter, r *http.Request) {
	h.sm.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(toJSON(v)))
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, graph.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
