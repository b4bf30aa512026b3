package application

import (
	"context"

	invdomain "github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
)

type OrderRepository interface {
	// SaveWithOutbox inserts the order, its lines and the outbox event in
	// one transaction.
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error

	// UpdateWithOutbox persists the order's status and payment proof
	// together with the outbox event. The write is conditional on the order
	// still being in the from status; a concurrent transition surfaces as
	// domain.ErrStatusConflict and nothing is written.
	UpdateWithOutbox(ctx context.Context, o domain.Order, from domain.Status, eventType string, payload []byte, traceparent string) error

	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByPhone(ctx context.Context, phone string) ([]domain.Order, error)
}

// InventoryLedger is the stock collaborator. Checkout only reads it; status
// transitions apply batched deltas through it.
type InventoryLedger interface {
	GetQuantity(ctx context.Context, productID, size string) (int, error)
	ApplyDeltas(ctx context.Context, deltas []invdomain.StockDelta) error
}

// IdempotencyStore consumes a client-supplied token exactly once. Remember
// returns the value stored by the first caller and whether this call was
// the one that stored it. Release frees a claim whose request failed so the
// token can be retried; it removes only the given value.
type IdempotencyStore interface {
	Remember(ctx context.Context, key, value string) (existing string, created bool, err error)
	Release(ctx context.Context, key, value string) error
}
