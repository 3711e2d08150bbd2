// Package server assembles the HTTP router from the module handlers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/health"
	"github.com/georgemunganga/storefront-api/internal/httpx"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/modules/order"
	"github.com/georgemunganga/storefront-api/internal/obs"
)

// Handlers are the route groups mounted on the router.
type Handlers struct {
	Catalog *catalog.Handler
	Orders  *order.Handler
	Health  *health.Checker
}

// NewRouter builds the chi router. gatherer may be nil, in which case
// /metrics is not mounted.
func NewRouter(logger *zap.Logger, metrics *obs.Metrics, gatherer prometheus.Gatherer, h Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpx.Logging(logger, metrics))
	router.Use(middleware.Recoverer)

	h.Health.RegisterRoutes(router)
	h.Catalog.RegisterRoutes(router)
	h.Orders.RegisterRoutes(router)

	if gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return router
}
