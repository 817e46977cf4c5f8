package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"logoanimator/internal/http/handlers"
	"logoanimator/internal/middleware"
)

// Options configures the cross-cutting middleware stack.
type Options struct {
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.EchoRequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/healthz", app.Health)

	generation := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/jobs/recent", app.RecentJobs)

		r.Post("/sessions", app.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Patch("/", app.PatchSession)
			r.Delete("/", app.DeleteSession)
			r.Post("/upload", app.UploadImage)
			r.With(generation).Post("/logo", app.GenerateLogo)
			r.With(generation).Post("/animation", app.GenerateAnimation)
			r.Post("/reset", app.ResetSession)
			r.Get("/events", app.Events)
			r.Get("/download", app.Download)
			r.Get("/bundle", app.Bundle)
			r.Get("/share/{platform}", app.Share)
		})
	})

	return r
}
