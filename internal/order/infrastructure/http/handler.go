package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/order/application"
	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/my-orders", h.listMyOrders)
	r.Get("/{id}", h.getOrder)
	r.Patch("/{id}/status", h.updateStatus)

	return r
}

type orderLineReq struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price"`
}

type createOrderReq struct {
	CustomerName string         `json:"customerName"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	IsShipping   bool           `json:"isShipping"`
	Items        []orderLineReq `json:"items"`
}

type orderResp struct {
	ID              string         `json:"id"`
	CustomerName    string         `json:"customerName"`
	Phone           string         `json:"phone"`
	Address         string         `json:"address,omitempty"`
	IsShipping      bool           `json:"isShipping"`
	Items           []orderLineReq `json:"items"`
	TotalCents      int64          `json:"totalPrice"`
	PaymentProofURL string         `json:"paymentProofUrl,omitempty"`
	Status          string         `json:"status"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toResp(o domain.Order) orderResp {
	items := make([]orderLineReq, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, orderLineReq{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			PriceCents:  line.PriceCents,
		})
	}
	return orderResp{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		Phone:           o.Phone,
		Address:         o.Address,
		IsShipping:      o.IsShipping,
		Items:           items,
		TotalCents:      o.TotalCents,
		PaymentProofURL: o.PaymentProofURL,
		Status:          o.Status.String(),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	items := make([]domain.OrderLine, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, domain.OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			PriceCents:  line.PriceCents,
		})
	}

	o, err := h.service.Checkout(ctx, application.CheckoutRequest{
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		Address:        req.Address,
		IsShipping:     req.IsShipping,
		Items:          items,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toResp(o))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	o, err := h.service.UpdateStatus(ctx, chi.URLParam(r, "id"), domain.Status(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResp(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	o, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResp(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	orders, err := h.service.List(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeList(w, orders)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListMyOrders")
	defer span.End()

	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}
	orders, err := h.service.ListByPhone(ctx, phone)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeList(w, orders)
}

func (h *Handler) writeList(w http.ResponseWriter, orders []domain.Order) {
	resp := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toResp(o))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, application.ErrOutOfStock),
		errors.Is(err, invdomain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStatusConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, application.ErrEmptyOrder),
		errors.Is(err, application.ErrMissingCustomer),
		errors.Is(err, application.ErrMissingAddress),
		errors.Is(err, invdomain.ErrUnknownSizeEntry):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error("order request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
