package obs

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ServiceName identifies the process in logs, metrics and traces.
const ServiceName = "storefront-api"

// Metrics groups the service's prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps engines usable without a registry in tests.
type Metrics struct {
	ordersPlaced    prometheus.Counter
	orderRejections *prometheus.CounterVec
	conflicts       prometheus.Counter
	productsCreated prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders committed by the reservation engine.",
		}),
		orderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_order_rejections_total",
			Help: "Order attempts rejected, by reason.",
		}, []string{"reason"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_reservation_conflicts_total",
			Help: "Optimistic commit attempts that lost a concurrent write race.",
		}),
		productsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_products_created_total",
			Help: "Products added to the catalog.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests served, by method and status.",
		}, []string{"method", "status"}),
	}
	reg.MustRegister(m.ordersPlaced, m.orderRejections, m.conflicts, m.productsCreated, m.httpRequests)
	return m
}

func (m *Metrics) OrderPlaced() {
	if m != nil {
		m.ordersPlaced.Inc()
	}
}

func (m *Metrics) OrderRejected(reason string) {
	if m != nil {
		m.orderRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) ReservationConflict() {
	if m != nil {
		m.conflicts.Inc()
	}
}

func (m *Metrics) ProductCreated() {
	if m != nil {
		m.productsCreated.Inc()
	}
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m != nil {
		m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
}
