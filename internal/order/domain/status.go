package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusConflict means another request changed the order's status
	// between read and write; the losing write is not applied.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type Status string

const (
	// StatusPendingPayment is the initial state: the order exists but no
	// payment proof has been submitted.
	StatusPendingPayment Status = "pending_payment"
	// StatusVerification means a payment slip is attached and awaits a
	// human check.
	StatusVerification Status = "verification"
	// StatusShipping means payment was verified and stock is committed.
	StatusShipping Status = "shipping"
	// StatusCompleted means delivery was confirmed.
	StatusCompleted Status = "completed"
	// StatusCancelled is terminal; the order row is kept, never deleted.
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusVerification, StatusShipping, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// StockCommitted reports whether an order in this status holds decremented
// stock. Inventory is committed only once payment has been verified, so
// unpaid orders never reserve inventory.
func (s Status) StockCommitted() bool {
	return s == StatusShipping || s == StatusCompleted
}

// StockEffect is the ledger side effect a status transition carries.
type StockEffect int

const (
	// EffectNone leaves the ledger untouched.
	EffectNone StockEffect = iota
	// EffectCommit decrements quantity and increments sold per line.
	EffectCommit
	// EffectRestore returns the committed quantities to the ledger.
	EffectRestore
)

// Transition validates a status change and returns the ledger effect it
// carries. The effect is derived from whether each side of the transition
// holds committed stock, so a free-form admin jump (e.g. straight from
// pending_payment to completed) commits stock exactly once, and leaving a
// committed status restores it exactly once. A same-status transition is an
// allowed no-op. Nothing may leave cancelled: stock was already restored, or
// never taken, and resurrecting the order would apply the effect twice.
func Transition(from, to Status) (StockEffect, error) {
	if !from.Valid() || !to.Valid() {
		return EffectNone, ErrInvalidTransition
	}
	if from == to {
		return EffectNone, nil
	}
	if from == StatusCancelled {
		return EffectNone, ErrInvalidTransition
	}
	switch {
	case !from.StockCommitted() && to.StockCommitted():
		return EffectCommit, nil
	case from.StockCommitted() && !to.StockCommitted():
		return EffectRestore, nil
	}
	return EffectNone, nil
}
