package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/xintone/xintone/internal/server"
	"github.com/xintone/xintone/pkg/auth"
)

// NewRouter builds the HTTP handler for the proxy.
func NewRouter(srv server.Server) http.Handler {
	log := srv.Logger.Named("http")

	origins := srv.Config.Server.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recoverer(log))
	r.Use(accessLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			apiTokenHeader,
			htmxRequestHeader,
			"HX-Target",
			"HX-Current-URL",
			"HX-Trigger",
			requestIDHeader,
		},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         600,
	}))
	r.Use(srv.Tracer.Middleware())

	r.Method(http.MethodGet, "/health", HealthHandler(nil))

	r.Route("/api", func(r chi.Router) {
		r.With(auth.Middleware(srv.Verifier, log.Named("auth"), auth.Optional)).
			Handle("/me", MeHandler(srv))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(srv.Verifier, log.Named("auth"), auth.Required))
			if role := srv.Config.Auth.RequiredRole; role != "" {
				r.Use(auth.RequireRole(role, log.Named("auth")))
			}

			r.Handle("/records", RecordsHandler(srv))
			r.Handle("/records/{id}", RecordHandler(srv))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found", false)
	})

	return r
}
