package order

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/storefront-api/internal/httpx"
	"github.com/georgemunganga/storefront-api/internal/pagination"
)

// Placer places orders against inventory.
type Placer interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)
}

// Handler exposes order HTTP endpoints.
type Handler struct {
	service Service
	placer  Placer
}

func NewHandler(service Service, placer Placer) *Handler {
	return &Handler{service: service, placer: placer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/id/{id}", h.getOrder)
		r.Get("/{user_id}", h.listOrders)
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	o, err := h.placer.PlaceOrder(r.Context(), req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]string{"id": o.ID})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := pagination.Parse(q.Get("limit"), q.Get("offset"))
	page, err := h.service.ListOrdersForUser(r.Context(), chi.URLParam(r, "user_id"), params.Limit, params.Offset)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, pagination.NewEnvelope(page.Items, page.Page))
}
