// Package inventory implements order placement: size selection against
// current stock and an all-or-nothing commit of the stock decrements together
// with the new order.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/events"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/modules/order"
	"github.com/georgemunganga/storefront-api/internal/obs"
)

// ProductReader is the catalog read the engine needs.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*catalog.Product, error)
}

// Committer applies size updates and stores the order as one atomic unit.
// When any product's version moved since it was read, Commit returns
// apperr.ErrConflict and changes nothing.
type Committer interface {
	Commit(ctx context.Context, updates []catalog.SizeUpdate, o *order.Order) error
}

// Deps are the collaborators and knobs of the engine. Policy defaults to
// FirstFit and Tracer to the global provider. Retries is how many extra
// attempts a conflicting reservation gets; Backoff is the first wait between them.
type Deps struct {
	Products  ProductReader
	Committer Committer
	Policy    SizePolicy
	Publisher events.Publisher
	Topic     string
	Logger    *zap.Logger
	Metrics   *obs.Metrics
	Tracer    trace.Tracer
	Retries   int
	Backoff   time.Duration
}

// Engine places orders.
type Engine struct {
	products  ProductReader
	committer Committer
	policy    SizePolicy
	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	metrics   *obs.Metrics
	tracer    trace.Tracer
	retries   int
	backoff   time.Duration
}

// NewEngine builds an engine from d, filling in defaults for the optional fields.
func NewEngine(d Deps) *Engine {
	e := &Engine{
		products:  d.Products,
		committer: d.Committer,
		policy:    d.Policy,
		publisher: d.Publisher,
		topic:     d.Topic,
		logger:    d.Logger,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		retries:   d.Retries,
		backoff:   d.Backoff,
	}
	if e.policy == nil {
		e.policy = FirstFit
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("storefront/inventory")
	}
	if e.retries < 0 {
		e.retries = 0
	}
	if e.backoff <= 0 {
		e.backoff = 10 * time.Millisecond
	}
	return e
}

// PlaceOrder validates req, reserves stock for every line and commits the
// decrements together with the order. Nothing is written unless every line
// can be served. Lost races are retried from a fresh read up to the
// configured limit before apperr.ErrConflict is returned.
func (e *Engine) PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error) {
	ctx, span := e.tracer.Start(ctx, "inventory.place_order", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(attribute.Int("order.items", len(req.Items)))

	if err := validate(req); err != nil {
		e.reject(err)
		return nil, err
	}
	req.UserAddress.UserID = strings.TrimSpace(req.UserAddress.UserID)

	var placed *order.Order
	attempt := func() error {
		o, err := e.reserve(ctx, req)
		if errors.Is(err, apperr.ErrConflict) {
			e.metrics.ReservationConflict()
			e.logger.Debug("reservation_conflict", zap.Error(err))
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		placed = o
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.backoff
	b.MaxInterval = 20 * e.backoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.retries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		span.RecordError(err)
		e.reject(err)
		return nil, err
	}

	e.metrics.OrderPlaced()
	e.logger.Info("order_placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", placed.UserAddress.UserID),
		zap.Int("items", len(placed.Items)),
	)
	events.Emit(ctx, e.publisher, e.logger, e.topic, placed.ID, events.OrderPlaced{
		OrderID:     placed.ID,
		UserID:      placed.UserAddress.UserID,
		Items:       len(placed.Items),
		TotalAmount: placed.TotalAmount.String(),
		Timestamp:   placed.CreatedAt,
	})
	return placed, nil
}

func (e *Engine) reject(err error) {
	e.metrics.OrderRejected(apperr.Code(err))
	e.logger.Info("order_rejected", zap.String("reason", apperr.Code(err)), zap.Error(err))
}

func validate(req order.PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", apperr.ErrInvalidInput)
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d has no productid", apperr.ErrInvalidInput, i)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: item %d qty must be > 0", apperr.ErrInvalidInput, i)
		}
	}
	if req.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total_amount must be >= 0", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(req.UserAddress.UserID) == "" {
		return fmt.Errorf("%w: user_address.user_id is required", apperr.ErrInvalidInput)
	}
	return nil
}

// reserve is one read-select-commit attempt. Lines naming the same product
// draw from a shared working copy, so the second line sees the first line's
// decrement.
func (e *Engine) reserve(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error) {
	working := make(map[string]*catalog.Product)
	var touched []string
	for _, it := range req.Items {
		p, ok := working[it.ProductID]
		if !ok {
			got, err := e.products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			p = got.Clone()
			working[it.ProductID] = p
			touched = append(touched, it.ProductID)
		}
		idx := e.policy(p.Sizes, it.Qty)
		if idx < 0 {
			return nil, fmt.Errorf("%w: product %s has no size with %d units", apperr.ErrInsufficientInventory, it.ProductID, it.Qty)
		}
		p.Sizes[idx].Quantity -= it.Qty
	}

	// Concurrent commits must take row locks in the same order.
	sort.Strings(touched)
	updates := make([]catalog.SizeUpdate, 0, len(touched))
	for _, id := range touched {
		p := working[id]
		updates = append(updates, catalog.SizeUpdate{ProductID: id, ExpectedVersion: p.Version, Sizes: p.Sizes})
	}
	o := &order.Order{
		Items:       append([]order.Item(nil), req.Items...),
		TotalAmount: req.TotalAmount,
		UserAddress: req.UserAddress,
	}
	if err := e.committer.Commit(ctx, updates, o); err != nil {
		return nil, err
	}
	return o, nil
}
