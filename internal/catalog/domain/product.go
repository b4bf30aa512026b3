package domain

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// StandardSizes is the ladder offered by the admin UI as a convenience.
// Stock entries accept any size string; this list is not a constraint.
var StandardSizes = []string{"SSS", "SS", "S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL", "6XL", "7XL", "8XL", "9XL", "10XL"}

// StockEntry is one per-size inventory row of a product.
type StockEntry struct {
	Size     string
	Quantity int
	Sold     int
}

type Product struct {
	ID          string
	Name        string
	Type        string
	Description string
	PriceCents  int64
	ImageURL    string
	Stock       []StockEntry
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the catalog invariants: a name, a non-negative price, and
// per-size rows that are unique with non-negative counters.
func (p Product) Validate() error {
	if p.Name == "" {
		return errors.Join(ErrInvalidProduct, errors.New("name is required"))
	}
	if p.PriceCents < 0 {
		return errors.Join(ErrInvalidProduct, errors.New("price must not be negative"))
	}
	seen := make(map[string]struct{}, len(p.Stock))
	for _, entry := range p.Stock {
		if entry.Size == "" {
			return errors.Join(ErrInvalidProduct, errors.New("stock entry size is required"))
		}
		if _, dup := seen[entry.Size]; dup {
			return errors.Join(ErrInvalidProduct, errors.New("duplicate stock entry for size "+entry.Size))
		}
		seen[entry.Size] = struct{}{}
		if entry.Quantity < 0 || entry.Sold < 0 {
			return errors.Join(ErrInvalidProduct, errors.New("stock counters must not be negative"))
		}
	}
	return nil
}
