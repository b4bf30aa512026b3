package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInsufficientStock means a decrement would drive quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownSizeEntry means no ledger row exists for the size. Sales
	// never create size rows; an admin has to open the slot first.
	ErrUnknownSizeEntry = errors.New("unknown size entry")
	// ErrNegativeQuantity means an adjustment would set quantity below zero.
	ErrNegativeQuantity = errors.New("negative quantity")
)

// StockDelta is one signed mutation of a ledger row. Quantity and Sold are
// applied atomically together.
type StockDelta struct {
	ProductID string
	Size      string
	Quantity  int
	Sold      int
}

// AdjustmentError reports every size of a restock batch whose resulting
// total would be negative. The whole batch is rejected.
type AdjustmentError struct {
	Failures map[string]int // size -> resulting total
}

func (e *AdjustmentError) Error() string {
	sizes := make([]string, 0, len(e.Failures))
	for size := range e.Failures {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, fmt.Sprintf("%s would become %d", size, e.Failures[size]))
	}
	return "stock adjustment rejected: " + strings.Join(parts, ", ")
}

func (e *AdjustmentError) Unwrap() error { return ErrNegativeQuantity }

type StockAdjusted struct {
	ProductID string
	Sets      map[string]int // size -> new absolute quantity
}
