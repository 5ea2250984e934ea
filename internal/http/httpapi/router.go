// Package httpapi assembles the chi router for the public API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"roomcraft/internal/http/handlers"
	"roomcraft/internal/middleware"
)

// NewRouter wires middlewares and routes around the handler set.
func NewRouter(app *handlers.App, country middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.Locale(app.Config.DefaultLocale, country),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.With(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute)).
			Post("/{feature}", app.Generate)
		r.Get("/{id}", app.GetStatus)
		r.Get("/", app.ListStatus)
	})

	return r
}
