package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/config"
	"github.com/georgemunganga/storefront-api/internal/events"
	"github.com/georgemunganga/storefront-api/internal/health"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/modules/inventory"
	"github.com/georgemunganga/storefront-api/internal/modules/order"
	"github.com/georgemunganga/storefront-api/internal/obs"
)

// Prices and totals go out as JSON numbers.
func init() { decimal.MarshalJSONWithoutQuotes = true }

// Options carries everything New wires together. Cache, Publisher, Metrics
// and Gatherer are optional.
type Options struct {
	Config    config.Config
	Version   string
	Stores    *Stores
	Cache     catalog.DetailsCache
	Publisher events.Publisher
	Checks    []health.Check
	Logger    *zap.Logger
	Metrics   *obs.Metrics
	Gatherer  prometheus.Gatherer
}

// New builds the engines over the given stores and returns the HTTP handler.
func New(o Options) http.Handler {
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// ── Catalog ─────────────────────────────────────────────
	catalogService := catalog.NewService(catalog.Deps{
		Repo:      o.Stores.Products,
		Publisher: o.Publisher,
		Topic:     o.Config.ProductEventsTopic,
		Logger:    logger.Named("catalog"),
		Metrics:   o.Metrics,
	})

	// ── Orders & Inventory ──────────────────────────────────
	engine := inventory.NewEngine(inventory.Deps{
		Products:  o.Stores.Products,
		Committer: o.Stores.Committer,
		Policy:    inventory.FirstFit,
		Publisher: o.Publisher,
		Topic:     o.Config.OrderEventsTopic,
		Logger:    logger.Named("inventory"),
		Metrics:   o.Metrics,
		Retries:   o.Config.ReservationRetries,
		Backoff:   o.Config.ReservationBackoff,
	})
	details := catalog.NewDetailsLookup(o.Stores.Products, o.Cache, logger.Named("details"))
	orderService := order.NewService(o.Stores.Orders, details, logger.Named("order"))

	// ── Health ──────────────────────────────────────────────
	checks := append([]health.Check(nil), o.Checks...)
	if o.Stores.Check != nil {
		checks = append(checks, *o.Stores.Check)
	}

	return NewRouter(logger, o.Metrics, o.Gatherer, Handlers{
		Catalog: catalog.NewHandler(catalogService),
		Orders:  order.NewHandler(orderService, engine),
		Health:  health.NewChecker(o.Version, 0, checks...),
	})
}
