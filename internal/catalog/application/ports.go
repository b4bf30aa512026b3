package application

import (
	"context"

	"github.com/tanakrit-dev/charity-storefront/internal/catalog/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) error
	// Update replaces the product fields and stock rows as given; the admin
	// edit form is authoritative, including sold corrections.
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
}
