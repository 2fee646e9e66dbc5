package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"padron/pkg/platform/httputil"
	"padron/pkg/platform/middleware/accesslog"
	"padron/pkg/platform/middleware/httpmetrics"
	"padron/pkg/platform/middleware/metadata"
	"padron/pkg/platform/middleware/requestid"
	"padron/pkg/platform/middleware/requesttime"
)

// RouteRegistrar mounts a feature's endpoints.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// Deps are the collaborators of the public router. Gatherer and HTTPMetrics
// are optional; without a gatherer /metrics is not mounted.
type Deps struct {
	Logger      *slog.Logger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *httpmetrics.Metrics
	Routes      []RouteRegistrar
}

// NewRouter wires the shared middleware chain, operational endpoints and
// every feature's routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(accesslog.Middleware(d.Logger))
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}
	r.Use(chimw.Recoverer)

	r.Get("/health", handleHealth)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, routes := range d.Routes {
		routes.Register(r)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteFailure(w, http.StatusNotFound, "Recurso no encontrado")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteFailure(w, http.StatusMethodNotAllowed, "Método no permitido")
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
