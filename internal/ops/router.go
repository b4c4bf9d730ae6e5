package ops

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"classpublisher/internal/infra"
)

// NewRouter builds the ops HTTP surface.
func NewRouter(app *App, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		Logger(logger),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/status", app.Status)
	r.Get("/v1/runs", app.Runs)

	return r
}
