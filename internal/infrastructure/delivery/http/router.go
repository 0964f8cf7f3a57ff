// Package httprouter wires the HTTP surface: the browser UI, the polled
// progress endpoint and file serving.
package httprouter

import (
	"log/slog"
	"net/http"
	"slices"

	"vidgrab/internal/config"
	"vidgrab/internal/engine"
	"vidgrab/internal/infrastructure/delivery/http/middleware"
	"vidgrab/internal/observability"
	"vidgrab/internal/preview"
	"vidgrab/internal/service"
	"vidgrab/internal/storage"
)

// Router is a ServeMux with a global middleware chain.
type Router struct {
	*http.ServeMux
	log         *slog.Logger
	cfg         *config.Config
	globalChain []func(http.Handler) http.Handler

	engine   engine.Engine
	svc      service.Downloads
	store    storage.Storer
	previews *preview.Service
	metrics  *observability.Metrics
}

// New builds the router with all middlewares and routes installed.
func New(
	log *slog.Logger,
	cfg *config.Config,
	eng engine.Engine,
	svc service.Downloads,
	store storage.Storer,
	previews *preview.Service,
	metrics *observability.Metrics,
) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		cfg:      cfg,
		engine:   eng,
		svc:      svc,
		store:    store,
		previews: previews,
		metrics:  metrics,
	}

	r.SetGlobalMiddlewares()
	r.SetRoutes()

	return r
}

// Use appends global middlewares.
func (r *Router) Use(mw ...func(http.Handler) http.Handler) {
	r.globalChain = append(r.globalChain, mw...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.ServeMux

	for _, mw := range slices.Backward(r.globalChain) {
		h = mw(h)
	}

	h.ServeHTTP(w, req)
}

// SetGlobalMiddlewares installs the default middleware chain.
func (r *Router) SetGlobalMiddlewares() {
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.Logger,
		middleware.Metrics(r.metrics),
	)
}

// SetRoutes installs all routes.
func (r *Router) SetRoutes() {
	r.HandleFunc("GET /{$}", r.Index)
	r.HandleFunc("POST /{$}", r.SubmitURL)
	r.HandleFunc("GET /select_format", r.SelectFormat)
	r.HandleFunc("POST /start_download", r.StartDownload)
	r.HandleFunc("GET /progress/{job_id}", r.ProgressStatus)
	r.HandleFunc("GET /progress/{job_id}/{filename}", r.ProgressPage)
	r.HandleFunc("GET /downloads/{filename}", r.DownloadFile)
	r.HandleFunc("GET /generate_preview/{job_id}/{format_id}", r.GeneratePreview)
	r.HandleFunc("GET /previews/{filename}", r.PreviewFile)

	r.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("GET /metrics", observability.Handler())
}
