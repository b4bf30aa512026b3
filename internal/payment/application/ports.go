package application

import (
	"context"
	"io"

	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
)

// SlipStore persists uploaded payment proof images and returns the URL the
// stored slip is served from. Image hosting is an external collaborator;
// this port is its boundary.
type SlipStore interface {
	Save(ctx context.Context, orderID, filename string, r io.Reader) (url string, err error)
}

// OrderTransitioner attaches a proof URL to an order and moves it into
// verification.
type OrderTransitioner interface {
	AttachPaymentProof(ctx context.Context, orderID, proofURL string) (domain.Order, error)
}
