package order

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/modules/catalog"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

var tracer = otel.Tracer("storefront/order")

// ProductDetailer resolves product details for a batch of ids. Ids without a
// product are absent from the result.
type ProductDetailer interface {
	LookupDetails(ctx context.Context, ids []string) (map[string]catalog.Details, error)
}

// Service defines order read logic. Order placement lives in the inventory
// module because it owns the stock decrement.
type Service interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrdersForUser(ctx context.Context, userID string, limit, offset int) (*OrderPage, error)
}

// OrderPage is one page of a user's enriched orders.
type OrderPage struct {
	Items []*EnrichedOrder
	Page  pagination.Page
}

type service struct {
	repo     Repository
	products ProductDetailer
	logger   *zap.Logger
}

func NewService(repo Repository, products ProductDetailer, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, products: products, logger: logger}
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListOrdersForUser(ctx context.Context, userID string, limit, offset int) (*OrderPage, error) {
	ctx, span := tracer.Start(ctx, "order.list_for_user")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	}
	params := pagination.Normalize(limit, offset)
	span.SetAttributes(attribute.Int("page.limit", params.Limit), attribute.Int("page.offset", params.Offset))

	orders, more, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{Items: s.enrich(ctx, orders), Page: params.Page(more)}, nil
}

// enrich attaches product details to every item whose product resolves. A
// failed lookup leaves the whole page unenriched rather than failing it.
func (s *service) enrich(ctx context.Context, orders []*Order) []*EnrichedOrder {
	var details map[string]catalog.Details
	if ids := ProductIDs(orders); len(ids) > 0 && s.products != nil {
		var err error
		details, err = s.products.LookupDetails(ctx, ids)
		if err != nil {
			s.logger.Warn("order_enrichment_failed", zap.Error(err), zap.Int("orders", len(orders)))
		}
	}

	out := make([]*EnrichedOrder, len(orders))
	for i, o := range orders {
		eo := &EnrichedOrder{
			ID:          o.ID,
			Items:       make([]EnrichedItem, len(o.Items)),
			TotalAmount: o.TotalAmount,
			UserAddress: o.UserAddress,
			CreatedAt:   o.CreatedAt,
		}
		for j, it := range o.Items {
			eo.Items[j] = EnrichedItem{Item: it}
			if d, ok := details[it.ProductID]; ok {
				d := d
				eo.Items[j].ProductDetails = &d
			}
		}
		out[i] = eo
	}
	return out
}
