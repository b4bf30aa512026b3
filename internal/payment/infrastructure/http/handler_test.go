package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/tanakrit-dev/charity-storefront/internal/order/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/payment/application"
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

type fakeTransitioner struct{}

func (f *fakeTransitioner) AttachPaymentProof(ctx context.Context, orderID, proofURL string) (orderdomain.Order, error) {
	return orderdomain.Order{ID: orderID, Status: orderdomain.StatusVerification, PaymentProofURL: proofURL}, nil
}

func slipRequest(t *testing.T, orderID string, slipBytes []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("orderId", orderID))
	fw, err := mw.CreateFormFile("slip", "slip.jpg")
	require.NoError(t, err)
	_, err = fw.Write(slipBytes)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-slip", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadSlipStoresFileAndReturnsOrder(t *testing.T) {
	log := logging.New("error")
	store := &fakeSlipStore{}
	h := NewHandler(log, application.NewService(log, store, &fakeTransitioner{}))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, slipRequest(t, "o1", []byte("image-bytes")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification")
	assert.Len(t, store.saved, 1)
}

func TestUploadSlipRejectsOversizedBody(t *testing.T) {
	log := logging.New("error")
	store := &fakeSlipStore{}
	h := NewHandler(log, application.NewService(log, store, &fakeTransitioner{}))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, slipRequest(t, "o1", bytes.Repeat([]byte("x"), maxSlipBytes+1)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.saved, "an oversized slip must never reach the store")
}

func TestUploadSlipRequiresOrderID(t *testing.T) {
	log := logging.New("error")
	store := &fakeSlipStore{}
	h := NewHandler(log, application.NewService(log, store, &fakeTransitioner{}))

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, slipRequest(t, "", []byte("image-bytes")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.saved)
}
