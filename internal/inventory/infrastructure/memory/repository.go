package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tanakrit-dev/charity-storefront/internal/inventory/domain"
)

type entry struct {
	quantity int
	sold     int
}

// Repository is an in-memory stock repository with the same atomicity
// semantics as the postgres one. Used by tests.
type Repository struct {
	mu      sync.Mutex
	entries map[string]map[string]*entry // productID -> size -> entry
	Events  []string                     // outbox event types, in commit order
}

func NewRepository() *Repository {
	return &Repository{entries: make(map[string]map[string]*entry)}
}

// Seed creates a size row outright, as an admin would.
func (r *Repository) Seed(productID, size string, quantity, sold int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(productID, size, quantity, sold)
}

func (r *Repository) set(productID, size string, quantity, sold int) {
	sizes, ok := r.entries[productID]
	if !ok {
		sizes = make(map[string]*entry)
		r.entries[productID] = sizes
	}
	sizes[size] = &entry{quantity: quantity, sold: sold}
}

func (r *Repository) get(productID, size string) (*entry, bool) {
	sizes, ok := r.entries[productID]
	if !ok {
		return nil, false
	}
	e, ok := sizes[size]
	return e, ok
}

// Sold returns the sold counter for assertions.
func (r *Repository) Sold(productID, size string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.get(productID, size); ok {
		return e.sold
	}
	return 0
}

func (r *Repository) GetQuantity(ctx context.Context, productID, size string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.get(productID, size)
	if !ok {
		return 0, fmt.Errorf("product %s size %q: %w", productID, size, domain.ErrUnknownSizeEntry)
	}
	return e.quantity, nil
}

func (r *Repository) ApplyDeltas(ctx context.Context, deltas []domain.StockDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate the whole batch before mutating anything.
	for _, d := range deltas {
		e, ok := r.get(d.ProductID, d.Size)
		if !ok {
			return fmt.Errorf("product %s size %q: %w", d.ProductID, d.Size, domain.ErrUnknownSizeEntry)
		}
		if e.quantity+d.Quantity < 0 || e.sold+d.Sold < 0 {
			return fmt.Errorf("product %s size %q: %w", d.ProductID, d.Size, domain.ErrInsufficientStock)
		}
	}
	for _, d := range deltas {
		e, _ := r.get(d.ProductID, d.Size)
		e.quantity += d.Quantity
		e.sold += d.Sold
	}
	return nil
}

func (r *Repository) SetAbsolute(ctx context.Context, productID, size string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.get(productID, size); ok {
		e.quantity = quantity
		return nil
	}
	r.set(productID, size, quantity, 0)
	return nil
}

func (r *Repository) ApplyAdjustmentWithOutbox(ctx context.Context, productID string, sets map[string]int, eventType string, payload []byte, traceparent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for size, quantity := range sets {
		if e, ok := r.get(productID, size); ok {
			e.quantity = quantity
			continue
		}
		r.set(productID, size, quantity, 0)
	}
	r.Events = append(r.Events, eventType)
	return nil
}
