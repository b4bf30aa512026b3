package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	invdomain "github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
	"github.com/tanakrit-dev/charity-storefront/pkg/tracing"
)

var (
	// ErrOutOfStock aborts the whole checkout; no order row is created.
	ErrOutOfStock = errors.New("out of stock")
	// ErrEmptyOrder rejects a checkout without any lines.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrMissingCustomer rejects a checkout without name or phone.
	ErrMissingCustomer = errors.New("customer name and phone are required")
	// ErrMissingAddress rejects a shipping checkout without a delivery
	// address. Pickup orders default to the pickup location instead.
	ErrMissingAddress = errors.New("delivery address is required for shipping orders")
)

type Service struct {
	log    *slog.Logger
	repo   OrderRepository
	ledger InventoryLedger
	idem   IdempotencyStore
}

func NewService(log *slog.Logger, repo OrderRepository, ledger InventoryLedger, idem IdempotencyStore) *Service {
	return &Service{log: log, repo: repo, ledger: ledger, idem: idem}
}

type CheckoutRequest struct {
	CustomerName   string
	Phone          string
	Address        string
	IsShipping     bool
	Items          []domain.OrderLine
	IdempotencyKey string
}

// Checkout validates stock availability for every cart line and creates the
// order in pending_payment. It never decrements the ledger: stock is
// committed later, when payment clears verification, so this check is the
// optimistic half of a two-phase validation.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (domain.Order, error) {
	if req.CustomerName == "" || req.Phone == "" {
		return domain.Order{}, ErrMissingCustomer
	}
	if len(req.Items) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}
	if req.IsShipping && req.Address == "" {
		return domain.Order{}, ErrMissingAddress
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("line %s size %q: quantity must be positive", line.ProductID, line.Size)
		}
		if line.PriceCents < 0 {
			return domain.Order{}, fmt.Errorf("line %s size %q: negative price", line.ProductID, line.Size)
		}
	}

	o := domain.NewOrder(uuid.NewString(), req.CustomerName, req.Phone, req.Address, req.IsShipping, req.Items)

	var idemKey string
	if req.IdempotencyKey != "" && s.idem != nil {
		idemKey = "idem:orders:" + req.IdempotencyKey
		existing, created, err := s.idem.Remember(ctx, idemKey, o.ID)
		if err != nil {
			return domain.Order{}, err
		}
		if !created {
			s.log.Info("checkout replayed", "idempotency_key", req.IdempotencyKey, "order_id", existing)
			return s.repo.Get(ctx, existing)
		}
	}

	for _, line := range req.Items {
		available, err := s.ledger.GetQuantity(ctx, line.ProductID, line.Size)
		if err != nil {
			s.releaseClaim(ctx, idemKey, o.ID)
			return domain.Order{}, err
		}
		if available < line.Quantity {
			s.releaseClaim(ctx, idemKey, o.ID)
			return domain.Order{}, fmt.Errorf("product %s size %q has %d left, wanted %d: %w",
				line.ProductID, line.Size, available, line.Quantity, ErrOutOfStock)
		}
	}

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		TotalCents:   o.TotalCents,
		IsShipping:   o.IsShipping,
		Items:        o.Items,
	})
	if err != nil {
		s.releaseClaim(ctx, idemKey, o.ID)
		return domain.Order{}, err
	}
	if err := s.repo.SaveWithOutbox(ctx, o, "OrderCreated", payload, tracing.TraceparentFrom(ctx)); err != nil {
		s.releaseClaim(ctx, idemKey, o.ID)
		return domain.Order{}, err
	}
	s.log.Info("order created", "order_id", o.ID, "total_cents", o.TotalCents, "lines", len(o.Items))
	return o, nil
}

// UpdateStatus drives the order state machine. The transition table decides
// the ledger effect; an effect that cannot be applied (insufficient stock,
// missing size row) rejects the transition and the order keeps its prior
// status. Setting the current status again is a no-op with no ledger side
// effect.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.Status) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	effect, err := domain.Transition(o.Status, to)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %s -> %s: %w", o.ID, o.Status, to, err)
	}
	if o.Status == to {
		return o, nil
	}

	switch effect {
	case domain.EffectCommit:
		if err := s.ledger.ApplyDeltas(ctx, stockDeltas(o, -1)); err != nil {
			return domain.Order{}, fmt.Errorf("commit stock for order %s: %w", o.ID, err)
		}
	case domain.EffectRestore:
		if err := s.ledger.ApplyDeltas(ctx, stockDeltas(o, +1)); err != nil {
			return domain.Order{}, fmt.Errorf("restore stock for order %s: %w", o.ID, err)
		}
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(domain.OrderStatusChanged{
		OrderID:   o.ID,
		From:      from,
		To:        to,
		ChangedAt: o.UpdatedAt,
	})
	if err == nil {
		err = s.repo.UpdateWithOutbox(ctx, o, from, "OrderStatusChanged", payload, tracing.TraceparentFrom(ctx))
	}
	if err != nil {
		// The transition was not persisted (a concurrent request may have
		// won the conditional write). Undo its ledger effect; a failed undo
		// is joined into the returned error, never swallowed.
		if revertErr := s.revert(ctx, o, effect); revertErr != nil {
			err = errors.Join(err, fmt.Errorf("revert stock for order %s: %w", o.ID, revertErr))
		}
		return domain.Order{}, err
	}
	s.log.Info("order status changed", "order_id", o.ID, "from", from, "to", to)
	return o, nil
}

// AttachPaymentProof records the slip URL and moves the order from
// pending_payment to verification. This is the only customer-driven
// transition and it is strict: any other current status is rejected.
func (s *Service) AttachPaymentProof(ctx context.Context, orderID, proofURL string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o.Status != domain.StatusPendingPayment {
		return domain.Order{}, fmt.Errorf("order %s is %s: %w", o.ID, o.Status, domain.ErrInvalidTransition)
	}

	o.PaymentProofURL = proofURL
	o.Status = domain.StatusVerification
	o.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(domain.PaymentProofAttached{OrderID: o.ID, ProofURL: proofURL})
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.repo.UpdateWithOutbox(ctx, o, domain.StatusPendingPayment, "PaymentProofAttached", payload, tracing.TraceparentFrom(ctx)); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("payment proof attached", "order_id", o.ID)
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByPhone(ctx context.Context, phone string) ([]domain.Order, error) {
	return s.repo.ListByPhone(ctx, phone)
}

func (s *Service) revert(ctx context.Context, o domain.Order, effect domain.StockEffect) error {
	var deltas []invdomain.StockDelta
	switch effect {
	case domain.EffectCommit:
		deltas = stockDeltas(o, +1)
	case domain.EffectRestore:
		deltas = stockDeltas(o, -1)
	default:
		return nil
	}
	if err := s.ledger.ApplyDeltas(ctx, deltas); err != nil {
		s.log.Error("stock revert failed", "order_id", o.ID, "err", err)
		return err
	}
	return nil
}

// releaseClaim frees an idempotency claim whose checkout failed, so the
// client may retry with the same token.
func (s *Service) releaseClaim(ctx context.Context, key, orderID string) {
	if key == "" {
		return
	}
	if err := s.idem.Release(ctx, key, orderID); err != nil {
		s.log.Error("idempotency release failed", "key", key, "err", err)
	}
}

// stockDeltas maps the order's lines onto ledger deltas. sign -1 commits
// (quantity down, sold up), sign +1 restores.
func stockDeltas(o domain.Order, sign int) []invdomain.StockDelta {
	deltas := make([]invdomain.StockDelta, 0, len(o.Items))
	for _, line := range o.Items {
		deltas = append(deltas, invdomain.StockDelta{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  sign * line.Quantity,
			Sold:      -sign * line.Quantity,
		})
	}
	return deltas
}
