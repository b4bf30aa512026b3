package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	orderdomain "github.com/tanakrit-dev/charity-storefront/internal/order/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/payment/application"
)

// maxSlipBytes caps uploaded proof images at 10 MiB.
const maxSlipBytes = 10 << 20

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/upload-slip", h.uploadSlip)

	return r
}

func (h *Handler) uploadSlip(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UploadSlip")
	defer span.End()

	// ParseMultipartForm only bounds in-memory buffering; the body itself
	// has to be capped to enforce the upload limit.
	r.Body = http.MaxBytesReader(w, r.Body, maxSlipBytes)
	if err := r.ParseMultipartForm(maxSlipBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	orderID := r.FormValue("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("slip")
	if err != nil {
		http.Error(w, "slip file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	o, err := h.service.UploadSlip(ctx, orderID, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, orderdomain.ErrOrderNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, orderdomain.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.log.Error("slip upload failed", "order_id", orderID, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"orderId":         o.ID,
		"status":          o.Status.String(),
		"paymentProofUrl": o.PaymentProofURL,
	})
}
