// Package httpapi wires the chi router: middleware chain, versioned API
// routes, and static serving of finished artifacts.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adfactory/internal/http/handlers"
	"adfactory/internal/middleware"
)

// Options tunes the router beyond the handler set.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	// StoragePath, when set, is served under /media/ so finished videos are
	// downloadable without a separate file server.
	StoragePath string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Log),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		limit := opts.RateLimitPerMin
		if limit <= 0 {
			limit = 30
		}
		r.With(middleware.RateLimit(limit, time.Minute)).Post("/", app.CreateJob)
		r.Get("/", app.ListJobs)
		r.Get("/{job_id}", app.JobStatus)
		r.Post("/{job_id}/cancel", app.CancelJob)
		r.Delete("/{job_id}", app.DeleteJob)
		r.Get("/{job_id}/videos", app.JobVideos)
		r.Get("/{job_id}/packages", app.JobPackages)
	})

	if opts.StoragePath != "" {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(opts.StoragePath)))
		r.Get("/media/*", fs.ServeHTTP)
	}

	return r
}
