package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
	"github.com/tanakrit-dev/charity-storefront/internal/inventory/infrastructure/memory"
	"github.com/tanakrit-dev/charity-storefront/pkg/logging"
)

func newService(t *testing.T) (*Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return NewService(logging.New("error"), repo), repo
}

func TestApplyDeltasNeverGoesNegative(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 0)
	ctx := context.Background()

	err := svc.ApplyDeltas(ctx, []domain.StockDelta{{ProductID: "p1", Size: "M", Quantity: -3, Sold: 3}})
	require.NoError(t, err)

	err = svc.ApplyDeltas(ctx, []domain.StockDelta{{ProductID: "p1", Size: "M", Quantity: -3, Sold: 3}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	qty, err := svc.GetQuantity(ctx, "p1", "M")
	require.NoError(t, err)
	assert.Equal(t, 2, qty, "rejected delta must leave quantity unchanged")
	assert.Equal(t, 3, repo.Sold("p1", "M"))
}

func TestApplyDeltasAllOrNothing(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 0)
	repo.Seed("p1", "L", 0, 0)
	ctx := context.Background()

	err := svc.ApplyDeltas(ctx, []domain.StockDelta{
		{ProductID: "p1", Size: "M", Quantity: -2, Sold: 2},
		{ProductID: "p1", Size: "L", Quantity: -1, Sold: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	m, _ := svc.GetQuantity(ctx, "p1", "M")
	l, _ := svc.GetQuantity(ctx, "p1", "L")
	assert.Equal(t, 5, m, "M must not be decremented when L fails")
	assert.Equal(t, 0, l)
}

func TestApplyDeltasUnknownSize(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 0)

	err := svc.ApplyDeltas(context.Background(), []domain.StockDelta{{ProductID: "p1", Size: "XL", Quantity: -1, Sold: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownSizeEntry)
}

func TestSetAbsoluteRejectsNegative(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SetAbsolute(context.Background(), "p1", "M", -1)
	assert.ErrorIs(t, err, domain.ErrNegativeQuantity)
}

func TestAdjustRejectsWholeBatch(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 0)
	repo.Seed("p1", "L", 5, 0)
	ctx := context.Background()

	err := svc.Adjust(ctx, "p1", map[string]int{"M": 10, "L": -20})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNegativeQuantity)

	var adjErr *domain.AdjustmentError
	require.ErrorAs(t, err, &adjErr)
	assert.Equal(t, map[string]int{"L": -15}, adjErr.Failures)

	m, _ := svc.GetQuantity(ctx, "p1", "M")
	l, _ := svc.GetQuantity(ctx, "p1", "L")
	assert.Equal(t, 5, m, "valid size must not be applied when the batch fails")
	assert.Equal(t, 5, l)
	assert.Empty(t, repo.Events)
}

func TestAdjustCommitsBatch(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 2)
	ctx := context.Background()

	err := svc.Adjust(ctx, "p1", map[string]int{"M": 20, "L": 8, "XL": 0})
	require.NoError(t, err)

	m, _ := svc.GetQuantity(ctx, "p1", "M")
	assert.Equal(t, 25, m)

	// A restock may open a new size slot; a zero delta opens nothing.
	l, err := svc.GetQuantity(ctx, "p1", "L")
	require.NoError(t, err)
	assert.Equal(t, 8, l)
	_, err = svc.GetQuantity(ctx, "p1", "XL")
	assert.ErrorIs(t, err, domain.ErrUnknownSizeEntry)

	assert.Equal(t, []string{"StockAdjusted"}, repo.Events)
}

func TestAdjustAllZeroDeltasIsNoop(t *testing.T) {
	svc, repo := newService(t)
	repo.Seed("p1", "M", 5, 0)

	err := svc.Adjust(context.Background(), "p1", map[string]int{"M": 0})
	require.NoError(t, err)
	assert.Empty(t, repo.Events)
}
