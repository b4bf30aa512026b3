package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanakrit-dev/charity-storefront/internal/order/domain"
	"github.com/tanakrit-dev/charity-storefront/pkg/logging"
)

type fakeSlipStore struct {
	saved []string
}

func (s *fakeSlipStore) Save(ctx context.Context, orderID, filename string, r io.Reader) (string, error) {
	url := "/slips/" + orderID + "-" + filename
	s.saved = append(s.saved, url)
	return url, nil
}

type fakeTransitioner struct {
	status domain.Status
	proof  string
}

func (f *fakeTransitioner) AttachPaymentProof(ctx context.Context, orderID, proofURL string) (domain.Order, error) {
	if f.status != domain.StatusPendingPayment {
		return domain.Order{}, fmt.Errorf("order %s is %s: %w", orderID, f.status, domain.ErrInvalidTransition)
	}
	f.status = domain.StatusVerification
	f.proof = proofURL
	return domain.Order{ID: orderID, Status: f.status, PaymentProofURL: proofURL}, nil
}

func TestUploadSlipAttachesProof(t *testing.T) {
	slips := &fakeSlipStore{}
	orders := &fakeTransitioner{status: domain.StatusPendingPayment}
	svc := NewService(logging.New("error"), slips, orders)

	o, err := svc.UploadSlip(context.Background(), "o1", "slip.jpg", strings.NewReader("image-bytes"))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerification, o.Status)
	assert.Equal(t, "/slips/o1-slip.jpg", o.PaymentProofURL)
	assert.Len(t, slips.saved, 1)
}

func TestUploadSlipRejectedOutsidePendingPayment(t *testing.T) {
	slips := &fakeSlipStore{}
	orders := &fakeTransitioner{status: domain.StatusShipping}
	svc := NewService(logging.New("error"), slips, orders)

	_, err := svc.UploadSlip(context.Background(), "o1", "slip.jpg", strings.NewReader("image-bytes"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestUploadSlipRequiresFile(t *testing.T) {
	svc := NewService(logging.New("error"), &fakeSlipStore{}, &fakeTransitioner{status: domain.StatusPendingPayment})

	_, err := svc.UploadSlip(context.Background(), "o1", "slip.jpg", nil)
	assert.ErrorIs(t, err, ErrMissingSlip)
}
