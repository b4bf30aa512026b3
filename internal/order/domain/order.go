package domain

import (
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

// PickupAddress is recorded on orders that opted out of shipping.
const PickupAddress = "Sisaket Rajabhat University"

// Shipping surcharge: flat base fee plus a fee per unit beyond the first.
const (
	ShippingBaseFeeCents     int64 = 5000
	ShippingPerExtraFeeCents int64 = 1000
)

type Order struct {
	ID              string
	CustomerName    string
	Phone           string
	Address         string
	IsShipping      bool
	Items           []OrderLine
	TotalCents      int64
	PaymentProofURL string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderLine snapshots the product name and price at checkout time so that
// later catalog edits never alter historical orders.
type OrderLine struct {
	ProductID   string
	ProductName string
	Size        string
	Quantity    int
	PriceCents  int64
}

// ShippingFeeCents returns the delivery surcharge for the given number of
// units, or zero for pickup orders.
func ShippingFeeCents(units int, isShipping bool) int64 {
	if !isShipping || units <= 0 {
		return 0
	}
	return ShippingBaseFeeCents + int64(units-1)*ShippingPerExtraFeeCents
}

func NewOrder(id, customerName, phone, address string, isShipping bool, items []OrderLine) Order {
	var subtotal int64
	var units int
	for _, line := range items {
		subtotal += int64(line.Quantity) * line.PriceCents
		units += line.Quantity
	}
	if !isShipping && address == "" {
		address = PickupAddress
	}
	now := time.Now().UTC()
	return Order{
		ID:           id,
		CustomerName: customerName,
		Phone:        phone,
		Address:      address,
		IsShipping:   isShipping,
		Items:        items,
		TotalCents:   subtotal + ShippingFeeCents(units, isShipping),
		Status:       StatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Units returns the total quantity across all lines.
func (o Order) Units() int {
	var n int
	for _, line := range o.Items {
		n += line.Quantity
	}
	return n
}
