package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/georgemunganga/storefront-api/internal/apperr"
	"github.com/georgemunganga/storefront-api/internal/events"
	"github.com/georgemunganga/storefront-api/internal/obs"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// maxFilterLen bounds accepted filter values; longer ones are ignored.
const maxFilterLen = 200

var tracer = otel.Tracer("storefront/catalog")

// Service defines catalog business logic: product creation and the
// filtered, paginated listing.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, q ListQuery) (*ProductPage, error)
}

// ListQuery is a raw listing request. Filters and paging are normalised
// leniently: bad values behave as if they were absent.
type ListQuery struct {
	Name   string
	Size   string
	Limit  int
	Offset int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items []*Product
	Page  pagination.Page
}

// Deps are the collaborators of the catalog service.
type Deps struct {
	Repo      Repository
	Publisher events.Publisher
	Topic     string
	Logger    *zap.Logger
	Metrics   *obs.Metrics
}

type service struct {
	repo      Repository
	publisher events.Publisher
	topic     string
	logger    *zap.Logger
	metrics   *obs.Metrics
}

func NewService(d Deps) Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: d.Repo, publisher: d.Publisher, topic: d.Topic, logger: logger, metrics: d.Metrics}
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	p, err := newProduct(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.metrics.ProductCreated()
	s.logger.Info("product_created", zap.String("product_id", p.ID), zap.Int("sizes", len(p.Sizes)))
	events.Emit(ctx, s.publisher, s.logger, s.topic, p.ID, events.ProductCreated{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price.String(),
		Sizes:     len(p.Sizes),
		Timestamp: time.Now().UTC(),
	})
	return p, nil
}

// newProduct validates a create request and builds the unsaved product.
func newProduct(req CreateProductRequest) (*Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", apperr.ErrInvalidInput)
	}
	sizes := make([]Size, 0, len(req.Sizes))
	seen := make(map[string]struct{}, len(req.Sizes))
	for _, sr := range req.Sizes {
		label := strings.TrimSpace(sr.Size)
		if label == "" {
			return nil, fmt.Errorf("%w: size label is required", apperr.ErrInvalidInput)
		}
		if sr.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity for size %q must be >= 0", apperr.ErrInvalidInput, label)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: duplicate size label %q", apperr.ErrInvalidInput, label)
		}
		seen[label] = struct{}{}
		sizes = append(sizes, Size{Size: label, Quantity: sr.Quantity})
	}
	return &Product{Name: name, Price: req.Price, Sizes: sizes}, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListProducts(ctx context.Context, q ListQuery) (*ProductPage, error) {
	ctx, span := tracer.Start(ctx, "catalog.list_products")
	defer span.End()

	f := Filter{Name: normalizeFilter(q.Name), Size: normalizeFilter(q.Size)}
	params := pagination.Normalize(q.Limit, q.Offset)
	span.SetAttributes(
		attribute.Bool("filter.name", f.Name != ""),
		attribute.Bool("filter.size", f.Size != ""),
		attribute.Int("page.limit", params.Limit),
		attribute.Int("page.offset", params.Offset),
	)

	items, more, err := s.repo.List(ctx, f, params)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ProductPage{Items: items, Page: params.Page(more)}, nil
}

// normalizeFilter trims v and drops it entirely when it is not usable as a
// filter (invalid UTF-8, control characters, or over maxFilterLen).
func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxFilterLen || !utf8.ValidString(v) {
		return ""
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return ""
		}
	}
	return v
}
