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

	"github.com/tanakrit-dev/charity-storefront/internal/catalog/application"
	"github.com/tanakrit-dev/charity-storefront/internal/catalog/domain"
	invapp "github.com/tanakrit-dev/charity-storefront/internal/inventory/application"
	invdomain "github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
)

// Handler serves the products resource, including the admin stock
// endpoints, which go through the inventory ledger rather than the catalog
// repository.
type Handler struct {
	log     *slog.Logger
	catalog *application.Service
	ledger  *invapp.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, catalog *application.Service, ledger *invapp.Service) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
		ledger:  ledger,
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.listProducts)
	r.Post("/", h.createProduct)
	r.Put("/{id}", h.updateProduct)
	r.Delete("/{id}", h.deleteProduct)
	r.Get("/{id}", h.getProduct)
	r.Patch("/{id}/stock", h.setStock)
	r.Post("/{id}/stock/adjust", h.adjustStock)

	return r
}

type stockEntryReq struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}

type productReq struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	PriceCents  int64           `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Stock       []stockEntryReq `json:"stock"`
	IsActive    bool            `json:"isActive"`
}

type productResp struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	PriceCents  int64           `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Stock       []stockEntryReq `json:"stock"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func fromReq(id string, req productReq) domain.Product {
	stock := make([]domain.StockEntry, 0, len(req.Stock))
	for _, entry := range req.Stock {
		stock = append(stock, domain.StockEntry{Size: entry.Size, Quantity: entry.Quantity, Sold: entry.Sold})
	}
	return domain.Product{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		Stock:       stock,
		IsActive:    req.IsActive,
	}
}

func toResp(p domain.Product) productResp {
	stock := make([]stockEntryReq, 0, len(p.Stock))
	for _, entry := range p.Stock {
		stock = append(stock, stockEntryReq{Size: entry.Size, Quantity: entry.Quantity, Sold: entry.Sold})
	}
	return productResp{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		Stock:       stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	includeInactive := r.URL.Query().Get("all") == "1"
	products, err := h.catalog.List(ctx, includeInactive)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := make([]productResp, 0, len(products))
	for _, p := range products {
		resp = append(resp, toResp(p))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResp(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	p, err := h.catalog.Create(ctx, fromReq("", req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toResp(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	p, err := h.catalog.Update(ctx, fromReq(chi.URLParam(r, "id"), req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toResp(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	if err := h.catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setStock commits one size's absolute quantity, the shape the admin stock
// page submits after the delta protocol has validated the batch.
func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetStock")
	defer span.End()

	var req struct {
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
		Mode     string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Mode != "set" {
		http.Error(w, "unsupported mode", http.StatusBadRequest)
		return
	}
	if req.Size == "" {
		http.Error(w, "size is required", http.StatusBadRequest)
		return
	}
	if err := h.ledger.SetAbsolute(ctx, chi.URLParam(r, "id"), req.Size, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjustStock runs the whole restock batch server-side against persisted
// quantities, so a stale admin page can never push stock negative.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdjustStock")
	defer span.End()

	var req struct {
		Deltas map[string]int `json:"deltas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.ledger.Adjust(ctx, chi.URLParam(r, "id"), req.Deltas); err != nil {
		var adjErr *invdomain.AdjustmentError
		if errors.As(err, &adjErr) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error":    "adjustment rejected",
				"failures": adjErr.Failures,
			})
			return
		}
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidProduct),
		errors.Is(err, invdomain.ErrUnknownSizeEntry):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, invdomain.ErrNegativeQuantity):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.Error("catalog request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
