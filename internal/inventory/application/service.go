package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
	"github.com/tanakrit-dev/charity-storefront/pkg/tracing"
)

// Service is the inventory ledger. Every mutation is a single unit of work
// against the repository; the check-then-write is never split across calls.
type Service struct {
	log  *slog.Logger
	repo StockRepository
}

func NewService(log *slog.Logger, repo StockRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) GetQuantity(ctx context.Context, productID, size string) (int, error) {
	return s.repo.GetQuantity(ctx, productID, size)
}

// ApplyDeltas applies a batch of signed quantity/sold mutations
// all-or-nothing.
func (s *Service) ApplyDeltas(ctx context.Context, deltas []domain.StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	return s.repo.ApplyDeltas(ctx, deltas)
}

// SetAbsolute sets one size's quantity outright. Used by the admin stock
// commit, never by the order flow.
func (s *Service) SetAbsolute(ctx context.Context, productID, size string, quantity int) error {
	if quantity < 0 {
		return domain.ErrNegativeQuantity
	}
	return s.repo.SetAbsolute(ctx, productID, size, quantity)
}

// Adjust runs the restock protocol: each size's new total is computed from
// the currently persisted quantity plus the operator's signed delta, never
// from a client-side snapshot. If any resulting total is negative the whole
// batch is rejected with the failing sizes; otherwise every size is
// committed as an absolute set in one transaction.
func (s *Service) Adjust(ctx context.Context, productID string, deltas map[string]int) error {
	sets := make(map[string]int, len(deltas))
	failures := make(map[string]int)
	for size, delta := range deltas {
		if delta == 0 {
			continue
		}
		current, err := s.repo.GetQuantity(ctx, productID, size)
		if err != nil {
			if !errors.Is(err, domain.ErrUnknownSizeEntry) {
				return err
			}
			// A restock may open a new size slot.
			current = 0
		}
		newTotal := current + delta
		if newTotal < 0 {
			failures[size] = newTotal
			continue
		}
		sets[size] = newTotal
	}
	if len(failures) > 0 {
		return &domain.AdjustmentError{Failures: failures}
	}
	if len(sets) == 0 {
		return nil
	}

	payload, err := json.Marshal(domain.StockAdjusted{ProductID: productID, Sets: sets})
	if err != nil {
		return err
	}
	if err := s.repo.ApplyAdjustmentWithOutbox(ctx, productID, sets, "StockAdjusted", payload, tracing.TraceparentFrom(ctx)); err != nil {
		return err
	}
	s.log.Info("stock adjusted", "product_id", productID, "sizes", len(sets))
	return nil
}
