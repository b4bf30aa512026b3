package domain

import "time"

type OrderCreated struct {
	OrderID      string
	CustomerName string
	TotalCents   int64
	IsShipping   bool
	Items        []OrderLine
}

type OrderStatusChanged struct {
	OrderID   string
	From      Status
	To        Status
	ChangedAt time.Time
}

type PaymentProofAttached struct {
	OrderID  string
	ProofURL string
}
