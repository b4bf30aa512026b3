package application

import (
	"context"

	"github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
)

type StockRepository interface {
	// GetQuantity returns the available count for one (product, size) row,
	// or domain.ErrUnknownSizeEntry.
	GetQuantity(ctx context.Context, productID, size string) (int, error)

	// ApplyDeltas applies every delta in one transaction. If any row would
	// go negative (domain.ErrInsufficientStock) or does not exist
	// (domain.ErrUnknownSizeEntry), nothing is applied.
	ApplyDeltas(ctx context.Context, deltas []domain.StockDelta) error

	// SetAbsolute sets one row's quantity, creating the size slot if absent.
	SetAbsolute(ctx context.Context, productID, size string, quantity int) error

	// ApplyAdjustmentWithOutbox sets each size's quantity and records the
	// outbox event in the same transaction.
	ApplyAdjustmentWithOutbox(ctx context.Context, productID string, sets map[string]int, eventType string, payload []byte, traceparent string) error
}
