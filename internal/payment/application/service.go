package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
)

var ErrMissingSlip = errors.New("slip file is required")

type Service struct {
	log    *slog.Logger
	slips  SlipStore
	orders OrderTransitioner
}

func NewService(log *slog.Logger, slips SlipStore, orders OrderTransitioner) *Service {
	return &Service{log: log, slips: slips, orders: orders}
}

// UploadSlip stores the proof image and drives the order from
// pending_payment into verification. The slip is stored first; a transition
// rejection leaves an orphaned file rather than an order pointing at a
// missing one.
func (s *Service) UploadSlip(ctx context.Context, orderID, filename string, slip io.Reader) (domain.Order, error) {
	if slip == nil {
		return domain.Order{}, ErrMissingSlip
	}
	url, err := s.slips.Save(ctx, orderID, filename, slip)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := s.orders.AttachPaymentProof(ctx, orderID, url)
	if err != nil {
		return domain.Order{}, err
	}
	s.log.Info("slip uploaded", "order_id", orderID, "url", url)
	return o, nil
}
